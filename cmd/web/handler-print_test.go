package main

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/myrjola/fitplan/internal/e2etest"
	"github.com/myrjola/fitplan/internal/plan"
)

func Test_application_planPrintGET(t *testing.T) {
	t.Parallel()
	server := startTestServer(t)
	ctx := t.Context()
	client := signedUpClient(t, server, "jane@example.com")

	if _, err := client.GetDoc(ctx, "/plan/print"); e2etest.StatusCode(err) != http.StatusNotFound {
		t.Errorf("print before onboarding: got %v, want 404", err)
	}

	var overview plan.Overview
	if err := client.Do(ctx, http.MethodPost, "/api/onboarding", onboardingInput(), &overview); err != nil {
		t.Fatalf("onboard: %v", err)
	}

	resp, err := client.Get(ctx, "/plan/print")
	if err != nil {
		t.Fatalf("get print: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatalf("parse document: %v", err)
	}

	if got := strings.TrimSpace(doc.Find("article.plan h1").Text()); got != "Weekly fitness plan" {
		t.Errorf("h1 = %q", got)
	}
	headings := e2etest.Texts(doc.Find("article.plan h3"))
	if len(headings) != len(overview.Workouts) {
		t.Fatalf("got %d workout headings, want %d", len(headings), len(overview.Workouts))
	}
	first := overview.Workouts[0]
	if want := fmt.Sprintf("%s: %s", time.Weekday(first.DayOfWeek), first.Title); headings[0] != want {
		t.Errorf("first heading = %q, want %q", headings[0], want)
	}
	if got := doc.Find("article.plan table tbody tr").Length(); got != len(overview.Meals) {
		t.Errorf("got %d nutrition rows, want %d", got, len(overview.Meals))
	}

	nonce, ok := doc.Find("head style").Attr("nonce")
	if !ok || nonce == "" {
		t.Fatal("inline style has no nonce")
	}
	if csp := resp.Header.Get("Content-Security-Policy"); !strings.Contains(csp, "'nonce-"+nonce+"'") {
		t.Errorf("CSP %q does not allow style nonce %q", csp, nonce)
	}
}

func Test_planMarkdown(t *testing.T) {
	t.Parallel()
	in := onboardingInput()
	generated := generatedPlan(in, time.Monday)
	md := planMarkdown(plan.Overview{Workouts: generated.Workouts, Meals: generated.Meals, Sleep: generated.Sleep})

	total := 0
	for _, m := range generated.Meals {
		total += m.Calories
	}
	for _, want := range []string{
		"# Weekly fitness plan",
		"| Meal | Time | Calories | Protein | Carbs | Fats |",
		fmt.Sprintf("Daily total: **%d calories**", total),
		"Bedtime **" + generated.Sleep.Bedtime + "**",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown does not contain %q:\n%s", want, md)
		}
	}
}
