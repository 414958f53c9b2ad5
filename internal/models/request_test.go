package models

import "testing"

func TestSubmissionRequestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		req     SubmissionRequest
		wantErr bool
	}{
		{name: "valid", req: SubmissionRequest{Language: "java", SourceCode: "class Main {}"}},
		{name: "empty language", req: SubmissionRequest{SourceCode: "x"}, wantErr: true},
		{name: "whitespace language", req: SubmissionRequest{Language: "  ", SourceCode: "x"}, wantErr: true},
		{name: "empty source", req: SubmissionRequest{Language: "java"}, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.req.ValidateRequest()
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestProblemRequestValidate(t *testing.T) {
	t.Parallel()
	valid := func() ProblemRequest {
		return ProblemRequest{
			Title:            "Two Sum",
			Description:      "Add numbers",
			Difficulty:       "easy",
			VisibleTestCases: []TestCase{{Input: "1 2", ExpectedOutput: "3"}},
			HiddenTestCases:  []TestCase{{Input: "4 5", ExpectedOutput: "9"}},
			ReferenceSolutions: []ReferenceSolution{
				{Language: "java", CompleteCode: "class Main {}"},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*ProblemRequest)
		wantErr bool
	}{
		{name: "valid", mutate: func(r *ProblemRequest) {}},
		{name: "no title", mutate: func(r *ProblemRequest) { r.Title = " " }, wantErr: true},
		{name: "no visible cases", mutate: func(r *ProblemRequest) { r.VisibleTestCases = nil }, wantErr: true},
		{name: "no hidden cases", mutate: func(r *ProblemRequest) { r.HiddenTestCases = nil }, wantErr: true},
		{name: "no reference solutions", mutate: func(r *ProblemRequest) { r.ReferenceSolutions = nil }, wantErr: true},
		{name: "blank reference code", mutate: func(r *ProblemRequest) {
			r.ReferenceSolutions[0].CompleteCode = "  "
		}, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := valid()
			tt.mutate(&req)
			err := req.ValidateRequest()
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestProblemRequestToProblem(t *testing.T) {
	t.Parallel()
	req := ProblemRequest{
		Title:            "Two Sum",
		Description:      "Add numbers",
		Difficulty:       "easy",
		VisibleTestCases: []TestCase{{Input: "1 2", ExpectedOutput: "3"}},
		HiddenTestCases:  []TestCase{{Input: "4 5", ExpectedOutput: "9"}},
		StarterCode:      map[string]string{"java": "class Main {}"},
		ReferenceSolutions: []ReferenceSolution{
			{Language: "java", CompleteCode: "class Main { /* full */ }"},
			{Language: "c++", CompleteCode: "int main(){}"},
		},
	}

	problem := req.ToProblem()

	if problem.Title != "Two Sum" || problem.Difficulty != "easy" {
		t.Fatalf("unexpected problem: %+v", problem)
	}
	if len(problem.ReferenceSolutions) != 2 {
		t.Fatalf("expected 2 reference solutions, got %d", len(problem.ReferenceSolutions))
	}
	if problem.ReferenceSolutions["c++"] != "int main(){}" {
		t.Fatalf("reference solutions not keyed by language: %v", problem.ReferenceSolutions)
	}
}
