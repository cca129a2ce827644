package engine

import "testing"

func TestParsePlanDirectJSON(t *testing.T) {
	reply := `{"steps":[{"op":"limit","n":5}],"output":{"type":"table"}}`
	p, ok := parsePlan(reply)
	if !ok {
		t.Fatalf("expected plan")
	}
	if len(p.Steps) != 1 || p.Steps[0].Op != "limit" || p.Steps[0].N != 5 {
		t.Fatalf("unexpected steps: %+v", p.Steps)
	}
	if p.Output.Type != "table" {
		t.Fatalf("unexpected output: %+v", p.Output)
	}
}

func TestParsePlanFencedBlock(t *testing.T) {
	reply := "Here is the plan you asked for:\n\n```json\n{\"output\":{\"type\":\"scalar\",\"column\":\"revenue\",\"aggregate\":\"sum\"}}\n```\n\nLet me know if you need anything else."
	p, ok := parsePlan(reply)
	if !ok {
		t.Fatalf("expected plan from fenced block")
	}
	if p.Output.Aggregate != "sum" || p.Output.Column != "revenue" {
		t.Fatalf("unexpected output: %+v", p.Output)
	}
}

func TestParsePlanFencedBlockNoLanguage(t *testing.T) {
	reply := "```\n{\"output\":{\"type\":\"table\"}}\n```"
	if _, ok := parsePlan(reply); !ok {
		t.Fatalf("expected plan from unlabeled fence")
	}
}

func TestParsePlanEmbeddedObject(t *testing.T) {
	reply := `Sure! The plan is {"steps":[{"op":"filter","column":"units","cmp":"gt","value":10}],"output":{"type":"table"}} which filters first.`
	p, ok := parsePlan(reply)
	if !ok {
		t.Fatalf("expected embedded plan")
	}
	if p.Steps[0].Column != "units" || p.Steps[0].Value != 10 {
		t.Fatalf("unexpected step: %+v", p.Steps[0])
	}
}

func TestParsePlanBracesInsideStrings(t *testing.T) {
	reply := `{"output":{"type":"plot","kind":"bar","x":"region","y":"revenue","title":"revenue {by} region"}}`
	p, ok := parsePlan(reply)
	if !ok {
		t.Fatalf("expected plan")
	}
	if p.Output.Title != "revenue {by} region" {
		t.Fatalf("title mangled: %q", p.Output.Title)
	}
}

func TestParsePlanRejectsNonPlanJSON(t *testing.T) {
	if _, ok := parsePlan(`{"answer": 42, "note": "not a plan"}`); ok {
		t.Fatalf("JSON without steps or output should not parse as a plan")
	}
}

func TestParsePlanProseFallsThrough(t *testing.T) {
	if _, ok := parsePlan("The total revenue is 1,234 dollars."); ok {
		t.Fatalf("prose should not parse as a plan")
	}
}

func TestFirstBalancedObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`x {"a":1} y`, `{"a":1}`},
		{`{"a":{"b":2}}`, `{"a":{"b":2}}`},
		{`{"s":"brace } inside"}`, `{"s":"brace } inside"}`},
		{`{"s":"esc \" {"}`, `{"s":"esc \" {"}`},
		{`no object here`, ``},
		{`{unclosed`, ``},
	}
	for _, tc := range cases {
		if got := firstBalancedObject(tc.in); got != tc.want {
			t.Fatalf("firstBalancedObject(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
