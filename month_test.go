package milkyway

import (
	"testing"
	"time"
)

func monthRecord(id, date, createdAt string) Record {
	return Record{ID: id, Date: date, Name: "tea", IconID: IconPearl, CreatedAt: createdAt}
}

func TestMonthPrefix(t *testing.T) {
	if got := MonthPrefix(2024, 3); got != "2024-03-" {
		t.Fatalf("month must be zero padded, got %q", got)
	}
	if got := MonthPrefix(2024, 12); got != "2024-12-" {
		t.Fatalf("got %q", got)
	}
}

func TestGroupByMonth(t *testing.T) {
	records := []Record{
		monthRecord("b", "2024-03-01", "2024-03-01T12:00:00Z"),
		monthRecord("c", "2024-03-02", "2024-03-02T09:00:00Z"),
		monthRecord("a", "2024-03-01", "2024-03-01T08:00:00Z"),
		monthRecord("d", "2024-04-01", "2024-04-01T09:00:00Z"),
		monthRecord("e", "2023-03-01", "2023-03-01T09:00:00Z"),
	}

	byDate := GroupByMonth(records, 2024, 3)

	if len(byDate) != 2 {
		t.Fatalf("expected 2 dates, got %+v", byDate)
	}
	first := byDate["2024-03-01"]
	if len(first) != 2 || first[0].ID != "a" || first[1].ID != "b" {
		t.Fatalf("groups must sort ascending by createdAt, got %+v", first)
	}
	if len(byDate["2024-03-02"]) != 1 {
		t.Fatalf("expected [c] for 2024-03-02")
	}
}

func TestGroupByMonthEmptyInput(t *testing.T) {
	byDate := GroupByMonth(nil, 2024, 3)
	if len(byDate) != 0 {
		t.Fatalf("expected empty projection, got %+v", byDate)
	}
}

func TestSortNewestFirst(t *testing.T) {
	records := []Record{
		monthRecord("a", "2024-03-01", "2024-03-01T08:00:00Z"),
		monthRecord("c", "2024-03-02", "2024-03-02T09:00:00Z"),
		monthRecord("b", "2024-03-01", "2024-03-01T12:00:00Z"),
	}

	SortNewestFirst(records)

	want := []string{"c", "b", "a"}
	for i, id := range want {
		if records[i].ID != id {
			t.Fatalf("want order %v, got %+v", want, records)
		}
	}
}

func TestOrderingWithinOneSecond(t *testing.T) {
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	whole := base.Format(CreatedAtLayout)
	half := base.Add(500 * time.Millisecond).Format(CreatedAtLayout)
	later := base.Add(520 * time.Millisecond).Format(CreatedAtLayout)

	records := []Record{
		monthRecord("c", "2024-03-01", later),
		monthRecord("b", "2024-03-01", half),
		monthRecord("a", "2024-03-01", whole),
	}

	byDate := GroupByMonth(records, 2024, 3)
	group := byDate["2024-03-01"]
	for i, id := range []string{"a", "b", "c"} {
		if group[i].ID != id {
			t.Fatalf("want ascending [a b c], got %+v", group)
		}
	}

	SortNewestFirst(records)
	for i, id := range []string{"c", "b", "a"} {
		if records[i].ID != id {
			t.Fatalf("want descending [c b a], got %+v", records)
		}
	}
}
