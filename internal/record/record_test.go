package record_test

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/JaimeStill/patentbot/internal/record"
)

const sample = `{
  "zeta": {"nested": [1, 2]},
  "references": ["US1234567", "US7654321"],
  "rejected_claims_list": [
    {"1": {"original_claim": "A widget.", "rejected_for": "102 over Smith", "page": 4}},
    {"3": {"original_claim": "The widget of claim 1.", "rejected_for": "103 over Smith and Jones"}}
  ],
  "responses": {
    "3": {"amend": "Amended widget.", "dispute": "Jones teaches away."},
    "1": {"dispute": "Smith lacks the bracket.", "amend": "Add the bracket."}
  },
  "alpha": null
}`

func mustParse(t *testing.T, data string) *record.Record {
	t.Helper()
	r, err := record.Parse([]byte(data))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return r
}

func TestParseRejectsNonObject(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"array", `[1,2]`},
		{"string", `"record"`},
		{"trailing data", `{"a":1} {"b":2}`},
		{"empty", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := record.Parse([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRoundTripPreservesOrderAndUnknownFields(t *testing.T) {
	r := mustParse(t, sample)

	want := []string{"zeta", "references", "rejected_claims_list", "responses", "alpha"}
	if got := r.Keys(); !slices.Equal(got, want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}

	out, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	again := mustParse(t, string(out))
	if !slices.Equal(again.Keys(), want) {
		t.Errorf("keys after round trip = %v", again.Keys())
	}

	second, err := json.Marshal(again)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != string(second) {
		t.Errorf("round trip not stable:\n%s\n%s", out, second)
	}

	raw, ok := again.Get("zeta")
	if !ok || string(raw) != `{"nested":[1,2]}` {
		t.Errorf("zeta = %s", raw)
	}
}

func TestSetKeepsPosition(t *testing.T) {
	r := mustParse(t, `{"a":1,"b":2}`)

	if err := r.Set("a", "one"); err != nil {
		t.Fatal(err)
	}
	if err := r.Set("c", 3); err != nil {
		t.Fatal(err)
	}

	out, _ := json.Marshal(r)
	if string(out) != `{"a":"one","b":2,"c":3}` {
		t.Errorf("got %s", out)
	}
}

func TestZeroValueMarshalsEmptyObject(t *testing.T) {
	var r record.Record
	out, err := r.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{}` {
		t.Errorf("got %s", out)
	}
}

func TestClaimIDsFollowResponsesOrder(t *testing.T) {
	r := mustParse(t, sample)

	ids, err := r.ClaimIDs()
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(ids, []string{"3", "1"}) {
		t.Errorf("ids = %v", ids)
	}
}

func TestClaimIDsWithoutResponses(t *testing.T) {
	for _, data := range []string{`{}`, `{"responses":{}}`, `{"responses":null}`} {
		r := mustParse(t, data)
		if _, err := r.ClaimIDs(); !errors.Is(err, record.ErrNoResponses) {
			t.Errorf("%s: err = %v, want ErrNoResponses", data, err)
		}
	}
}

func TestCandidates(t *testing.T) {
	r := mustParse(t, sample)

	got, err := r.Candidates("1")
	if err != nil {
		t.Fatal(err)
	}
	want := []record.Candidate{
		{Disposition: "dispute", Text: "Smith lacks the bracket."},
		{Disposition: "amend", Text: "Add the bracket."},
	}
	if !slices.Equal(got, want) {
		t.Errorf("candidates = %+v", got)
	}

	if text, ok := r.CandidateText("3", "amend"); !ok || text != "Amended widget." {
		t.Errorf("CandidateText = %q, %v", text, ok)
	}
	if _, ok := r.CandidateText("3", "combine"); ok {
		t.Error("combine should have no candidate")
	}
}

func TestReferences(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []string
	}{
		{"present", sample, []string{"US1234567", "US7654321"}},
		{"empty", `{"references":[]}`, []string{}},
		{"missing", `{}`, []string{}},
		{"null", `{"references":null}`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mustParse(t, tt.data).References()
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := mustParse(t, `{"references":"US1"}`).References(); !errors.Is(err, record.ErrMalformedField) {
		t.Errorf("scalar references: err = %v", err)
	}
}

func TestRejectedClaim(t *testing.T) {
	r := mustParse(t, sample)

	rej, err := r.RejectedClaim("3")
	if err != nil {
		t.Fatal(err)
	}
	if rej.OriginalClaim != "The widget of claim 1." || rej.RejectedFor != "103 over Smith and Jones" {
		t.Errorf("rejection = %+v", rej)
	}
	if rej.ResponseType != "" || rej.ChosenResponse != "" {
		t.Errorf("unexpected disposition on fresh claim: %+v", rej)
	}

	if _, err := r.RejectedClaim("9"); !errors.Is(err, record.ErrClaimNotFound) {
		t.Errorf("err = %v, want ErrClaimNotFound", err)
	}
}

func TestSetDisposition(t *testing.T) {
	r := mustParse(t, sample)
	before, _ := json.Marshal(r)

	if err := r.SetDisposition("1", "amend", "Add the bracket."); err != nil {
		t.Fatal(err)
	}

	rej, err := r.RejectedClaim("1")
	if err != nil {
		t.Fatal(err)
	}
	if rej.ResponseType != "amend" || rej.ChosenResponse != "Add the bracket." {
		t.Errorf("rejection = %+v", rej)
	}

	raw, _ := r.Get(record.FieldRejectedClaimsList)
	want := `[{"1":{"original_claim":"A widget.","rejected_for":"102 over Smith","page":4,"response_type":"amend","chosen_response":"Add the bracket."}},{"3":{"original_claim":"The widget of claim 1.","rejected_for":"103 over Smith and Jones"}}]`
	if string(raw) != want {
		t.Errorf("rejected_claims_list =\n%s\nwant\n%s", raw, want)
	}

	after, _ := json.Marshal(r)
	if string(before) == string(after) {
		t.Error("record unchanged after SetDisposition")
	}
	if !slices.Equal(r.Keys(), mustParse(t, sample).Keys()) {
		t.Error("top-level key order changed")
	}

	if err := r.SetDisposition("9", "amend", ""); !errors.Is(err, record.ErrClaimNotFound) {
		t.Errorf("err = %v, want ErrClaimNotFound", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	r := mustParse(t, sample)
	c := r.Clone()

	if err := c.SetDisposition("3", "dispute", "Jones teaches away."); err != nil {
		t.Fatal(err)
	}

	rej, _ := r.RejectedClaim("3")
	if rej.ResponseType != "" {
		t.Error("clone mutation leaked into original")
	}
}

func TestScanAndValue(t *testing.T) {
	r := mustParse(t, `{"b":1,"a":2}`)

	v, err := r.Value()
	if err != nil {
		t.Fatal(err)
	}

	var scanned record.Record
	if err := scanned.Scan([]byte(v.(string))); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(scanned.Keys(), []string{"b", "a"}) {
		t.Errorf("keys = %v", scanned.Keys())
	}

	if err := scanned.Scan(nil); err != nil || scanned.Len() != 0 {
		t.Errorf("scan nil: len %d, err %v", scanned.Len(), err)
	}
	if err := scanned.Scan(42); err == nil {
		t.Error("expected error scanning int")
	}
}

func TestStringRendering(t *testing.T) {
	r := mustParse(t, `{"draft":"Dear examiner","n":3,"obj":{"a": 1},"nil":null}`)

	tests := map[string]string{
		"draft":   "Dear examiner",
		"n":       "3",
		"obj":     `{"a":1}`,
		"nil":     "",
		"missing": "",
	}
	for key, want := range tests {
		if got := r.String(key); got != want {
			t.Errorf("String(%q) = %q, want %q", key, got, want)
		}
	}
	if r.Draft() != "Dear examiner" {
		t.Errorf("Draft() = %q", r.Draft())
	}
}

func TestClaimIDsWithPathCharacters(t *testing.T) {
	r := mustParse(t, `{
  "rejected_claims_list": [{"1.a": {"original_claim": "A lever.", "rejected_for": "102"}}],
  "responses": {"1.a": {"amend": "A longer lever."}}
}`)

	ids, err := r.ClaimIDs()
	if err != nil || !slices.Equal(ids, []string{"1.a"}) {
		t.Fatalf("ids = %v, err %v", ids, err)
	}
	if text, ok := r.CandidateText("1.a", "amend"); !ok || text != "A longer lever." {
		t.Errorf("CandidateText = %q, %v", text, ok)
	}

	if err := r.SetDisposition("1.a", "amend", "A longer lever."); err != nil {
		t.Fatal(err)
	}
	raw, _ := r.Get(record.FieldRejectedClaimsList)
	want := `[{"1.a":{"original_claim":"A lever.","rejected_for":"102","response_type":"amend","chosen_response":"A longer lever."}}]`
	if string(raw) != want {
		t.Errorf("rejected_claims_list = %s", raw)
	}
}
