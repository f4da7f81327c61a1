package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"ledger/internal/core"
)

func mustCreateBudget(t *testing.T, s *Store, draft core.BudgetDraft) core.Budget {
	t.Helper()
	b, err := s.CreateBudget(context.Background(), draft)
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}
	return b
}

func q1Budget(name, projectID string) core.BudgetDraft {
	return core.BudgetDraft{
		Name:      name,
		Amount:    dec("5000"),
		StartDate: day(2024, time.January, 1),
		EndDate:   day(2024, time.March, 31),
		ProjectID: projectID,
		CreatedBy: "cfo-1",
		Items: []core.BudgetItemDraft{
			{Category: "ads", Amount: dec("3000")},
			{Category: "events", Amount: dec("2000")},
		},
	}
}

func TestCreateBudget(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := mustCreateBudget(t, s, q1Budget("Q1 Marketing", "proj-1"))
	if len(b.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(b.Items))
	}

	got, err := s.GetBudgetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetBudgetByID() error = %v", err)
	}
	if got.Amount.String() != "5000" {
		t.Errorf("amount = %s, want 5000", got.Amount)
	}
	if len(got.Items) != 2 {
		t.Errorf("loaded items = %d, want 2", len(got.Items))
	}
}

func TestCreateBudgetValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	draft := q1Budget("Bad", "")
	draft.Items = nil
	if _, err := s.CreateBudget(ctx, draft); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("empty items: error = %v, want ErrInvalidInput", err)
	}

	draft = q1Budget("Bad", "")
	draft.EndDate = day(2023, time.December, 1)
	if _, err := s.CreateBudget(ctx, draft); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("inverted dates: error = %v, want ErrInvalidInput", err)
	}
}

func TestGetBudgetByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := mustCreateBudget(t, s, q1Budget("Q1 Marketing", ""))

	got, err := s.GetBudgetByName(ctx, "Q1 Marketing")
	if err != nil {
		t.Fatalf("GetBudgetByName() error = %v", err)
	}
	if got.ID != b.ID {
		t.Errorf("id = %q, want %q", got.ID, b.ID)
	}

	if _, err := s.GetBudgetByName(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing name: error = %v, want ErrNotFound", err)
	}
}

func TestListBudgetsFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateBudget(t, s, q1Budget("A", "proj-1"))
	mustCreateBudget(t, s, q1Budget("B", "proj-2"))
	deptDraft := q1Budget("C", "")
	deptDraft.DepartmentID = "dept-1"
	mustCreateBudget(t, s, deptDraft)

	all, err := s.ListBudgets(ctx, BudgetFilter{})
	if err != nil {
		t.Fatalf("ListBudgets() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all budgets = %d, want 3", len(all))
	}

	byProject, err := s.ListBudgets(ctx, BudgetFilter{ProjectID: "proj-1"})
	if err != nil {
		t.Fatalf("ListBudgets(project) error = %v", err)
	}
	if len(byProject) != 1 || byProject[0].Name != "A" {
		t.Errorf("project filter returned %v", byProject)
	}

	byDept, err := s.ListBudgets(ctx, BudgetFilter{DepartmentID: "dept-1"})
	if err != nil {
		t.Fatalf("ListBudgets(department) error = %v", err)
	}
	if len(byDept) != 1 || byDept[0].Name != "C" {
		t.Errorf("department filter returned %v", byDept)
	}
}

func TestUpdateBudget(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := mustCreateBudget(t, s, q1Budget("Q1 Marketing", ""))

	amount := dec("6000")
	name := "Q1 Marketing (revised)"
	got, err := s.UpdateBudget(ctx, b.ID, core.BudgetPatch{Name: &name, Amount: &amount})
	if err != nil {
		t.Fatalf("UpdateBudget() error = %v", err)
	}
	if got.Name != name || got.Amount.String() != "6000" {
		t.Errorf("updated budget = %q/%s", got.Name, got.Amount)
	}
	if len(got.Items) != 2 {
		t.Errorf("items after update = %d, want 2", len(got.Items))
	}

	// Patching dates into an inverted range is rejected.
	end := day(2023, time.June, 30)
	if _, err := s.UpdateBudget(ctx, b.ID, core.BudgetPatch{EndDate: &end}); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("inverted patch: error = %v, want ErrInvalidInput", err)
	}

	if _, err := s.UpdateBudget(ctx, "missing", core.BudgetPatch{Name: &name}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing budget: error = %v, want ErrNotFound", err)
	}
}

func TestDeleteBudgetRemovesItems(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := mustCreateBudget(t, s, q1Budget("Q1 Marketing", ""))
	if err := s.DeleteBudget(ctx, b.ID); err != nil {
		t.Fatalf("DeleteBudget() error = %v", err)
	}

	if _, err := s.GetBudgetByID(ctx, b.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("get deleted budget: error = %v, want ErrNotFound", err)
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM budget_items WHERE budget_id = ?`, b.ID).Scan(&count); err != nil {
		t.Fatalf("count items: %v", err)
	}
	if count != 0 {
		t.Errorf("orphaned budget items = %d, want 0", count)
	}

	if err := s.DeleteBudget(ctx, b.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("double delete: error = %v, want ErrNotFound", err)
	}
}
