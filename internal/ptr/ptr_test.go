package ptr_test

import (
	"testing"

	"github.com/myrjola/fitplan/internal/fitness"
	"github.com/myrjola/fitplan/internal/ptr"
)

func TestRef(t *testing.T) {
	t.Parallel()
	weight := 82.5
	p := ptr.Ref(weight)
	weight = 80
	if *p != 82.5 {
		t.Errorf("Ref() followed the original variable, got %v", *p)
	}

	profile := fitness.Profile{Age: ptr.Ref(30), Gender: ptr.Ref(fitness.GenderFemale)}
	if *profile.Age != 30 || *profile.Gender != fitness.GenderFemale {
		t.Errorf("unexpected profile %+v", profile)
	}
}
