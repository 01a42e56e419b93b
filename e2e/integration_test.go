//go:build e2e

// Package e2e contains end-to-end integration tests using real DynamoDB tables.
// Run with: go test -tags=e2e -v ./e2e/...
//
// DOJO_E2E_PROFILE selects a shared AWS profile, DOJO_E2E_REGION the region
// (default us-west-1), and DOJO_E2E_ENDPOINT a local endpoint such as
// DynamoDB Local.
package e2e

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"

	"github.com/jacentio/dojo/cache"
	"github.com/jacentio/dojo/internal/counter"
	"github.com/jacentio/dojo/internal/model"
	"github.com/jacentio/dojo/store"
	"github.com/jacentio/dojo/stream"
)

// Table names - unique per test run to avoid conflicts
const tablePrefix = "dojo-e2e-test"

var (
	testID        string
	studentsTable string
	importedTable string

	ddbClient *dynamodb.Client
	testStore *store.Store
)

// --- Test Records ---

// Trainee mirrors the portal's student record under a per-run table name.
type Trainee struct {
	ID          string                  `dynamodbav:"id"`
	Name        string                  `dynamodbav:"name"`
	Belt        string                  `dynamodbav:"belt"`
	Date        *store.Timestamp        `dynamodbav:"date"`
	Notes       []model.Note            `dynamodbav:"notes"`
	NoteCounter counter.Counter[uint32] `dynamodbav:"note_counter"`
}

func (Trainee) TableName() string    { return studentsTable }
func (Trainee) KeyAttribute() string { return "id" }
func (t Trainee) PrimaryKey() string { return t.ID }

// Sheet mirrors the imported spreadsheet row.
type Sheet struct {
	Name  string   `dynamodbav:"name"`
	Notes []string `dynamodbav:"notes"`
}

func (Sheet) TableName() string    { return importedTable }
func (Sheet) KeyAttribute() string { return "name" }
func (s Sheet) PrimaryKey() string { return s.Name }

func TestMain(m *testing.M) {
	testID = uuid.New().String()[:8]
	studentsTable = fmt.Sprintf("%s-%s-students", tablePrefix, testID)
	importedTable = fmt.Sprintf("%s-%s-imported", tablePrefix, testID)

	fmt.Printf("Test ID: %s\n", testID)
	fmt.Printf("Tables:\n")
	fmt.Printf("  - Students: %s\n", studentsTable)
	fmt.Printf("  - Imported: %s\n", importedTable)

	ctx := context.Background()
	region := os.Getenv("DOJO_E2E_REGION")
	if region == "" {
		region = "us-west-1"
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if profile := os.Getenv("DOJO_E2E_PROFILE"); profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		fmt.Printf("Failed to load AWS config: %v\n", err)
		os.Exit(1)
	}

	ddbClient = dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint := os.Getenv("DOJO_E2E_ENDPOINT"); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	storeCfg := store.DefaultConfig()
	storeCfg.BillingMode = "PAY_PER_REQUEST"
	testStore = store.New(ddbClient, storeCfg)

	if err := createTables(ctx); err != nil {
		fmt.Printf("Failed to create tables: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := deleteTables(ctx); err != nil {
		fmt.Printf("Failed to delete tables: %v\n", err)
	}

	os.Exit(code)
}

func createTables(ctx context.Context) error {
	tables := []struct{ name, key string }{
		{studentsTable, "id"},
		{importedTable, "name"},
	}
	for _, t := range tables {
		if err := testStore.CreateTable(ctx, t.name, t.key); err != nil {
			return err
		}
	}

	waiter := dynamodb.NewTableExistsWaiter(ddbClient)
	for _, t := range tables {
		fmt.Printf("Waiting for table %s to be active...\n", t.name)
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(t.name)}, 2*time.Minute); err != nil {
			return fmt.Errorf("waiting for table %s: %w", t.name, err)
		}
	}
	return nil
}

func deleteTables(ctx context.Context) error {
	for _, name := range []string{studentsTable, importedTable} {
		fmt.Printf("Deleting table %s...\n", name)
		if _, err := ddbClient.DeleteTable(ctx, &dynamodb.DeleteTableInput{
			TableName: aws.String(name),
		}); err != nil {
			fmt.Printf("Warning: failed to delete table %s: %v\n", name, err)
		}
	}
	return nil
}

func newTrainee(name string) Trainee {
	return Trainee{ID: uuid.New().String(), Name: name, Belt: "White", Notes: []model.Note{}}
}

// --- Store Tests ---

func TestTableExists(t *testing.T) {
	ctx := context.Background()

	ok, err := testStore.TableExists(ctx, studentsTable)
	if err != nil {
		t.Fatalf("TableExists failed: %v", err)
	}
	if !ok {
		t.Error("expected students table to exist")
	}

	ok, err = testStore.TableExists(ctx, studentsTable+"-missing")
	if err != nil {
		t.Fatalf("TableExists failed: %v", err)
	}
	if ok {
		t.Error("expected missing table to not exist")
	}
}

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	table := store.NewTable[Trainee](testStore)

	tr := newTrainee("Jo Park")
	now := time.Now()
	tr.Date = store.NewTimestamp(now)
	tr.Notes = append(tr.Notes, model.Note{ID: tr.NoteCounter.Increment(), Date: now.Format(model.NoteDateLayout), User: "kim", Content: "likes kata"})

	if err := table.Put(ctx, tr.ID, tr); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok, err := table.Get(ctx, tr.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("expected record to exist")
	}
	if got.Name != "Jo Park" || len(got.Notes) != 1 || got.Notes[0].Content != "likes kata" {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.NoteCounter.Current() != 1 {
		t.Errorf("expected note counter 1, got %d", got.NoteCounter.Current())
	}
	if got.Date == nil || !got.Date.Equal(now) {
		t.Errorf("expected date %v, got %v", now.UTC(), got.Date)
	}

	if err := table.Delete(ctx, tr.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, err := table.Get(ctx, tr.ID); err != nil || ok {
		t.Errorf("expected record to be gone, ok=%v err=%v", ok, err)
	}
}

func TestGet_NotFound(t *testing.T) {
	table := store.NewTable[Trainee](testStore)

	_, ok, err := table.Get(context.Background(), "nonexistent-"+uuid.New().String())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("expected not found")
	}
}

func TestScanAll_Paginates(t *testing.T) {
	ctx := context.Background()

	cfg := store.DefaultConfig()
	cfg.ScanLimit = 2
	paged := store.New(ddbClient, cfg)
	table := store.NewTable[Sheet](paged)

	want := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		name := fmt.Sprintf("scan-%s-%d", testID, i)
		want = append(want, name)
		if err := table.Put(ctx, name, Sheet{Name: name, Notes: []string{"n"}}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	t.Cleanup(func() {
		for _, name := range want {
			_ = table.Delete(context.Background(), name)
		}
	})

	all, err := table.ScanAll(ctx)
	if err != nil {
		t.Fatalf("ScanAll failed: %v", err)
	}
	var got []string
	for _, s := range all {
		got = append(got, s.Name)
	}
	sort.Strings(got)
	for _, name := range want {
		i := sort.SearchStrings(got, name)
		if i == len(got) || got[i] != name {
			t.Errorf("expected %s in scan results", name)
		}
	}
}

// --- Cache Tests ---

func TestColumn_ServesFromCacheUntilEvicted(t *testing.T) {
	ctx := context.Background()
	table := store.NewTable[Trainee](testStore)
	col := cache.New[Trainee](table, cache.DefaultConfig[Trainee]())

	tr := newTrainee("Sam Lee")
	if err := col.Put(ctx, tr.ID, tr); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Change the record behind the cache's back.
	changed := tr
	changed.Belt = "Yellow"
	if err := table.Put(ctx, tr.ID, changed); err != nil {
		t.Fatalf("direct Put failed: %v", err)
	}

	got, _, err := col.Get(ctx, tr.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Belt != "White" {
		t.Errorf("expected cached belt White, got %s", got.Belt)
	}

	handler := stream.NewHandler(nil, col)
	event := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{{
		EventName:      "MODIFY",
		EventSourceArn: "arn:aws:dynamodb:us-west-1:123456789012:table/" + studentsTable + "/stream/2024-01-01T00:00:00.000",
		Change: events.DynamoDBStreamRecord{
			Keys: map[string]events.DynamoDBAttributeValue{"id": events.NewStringAttribute(tr.ID)},
		},
	}}}
	if err := handler.HandleChanges(ctx, event); err != nil {
		t.Fatalf("HandleChanges failed: %v", err)
	}

	got, _, err = col.Get(ctx, tr.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Belt != "Yellow" {
		t.Errorf("expected refreshed belt Yellow, got %s", got.Belt)
	}

	if err := col.Delete(ctx, tr.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
}

func TestColumn_GetUpdateSerializesWriters(t *testing.T) {
	ctx := context.Background()
	table := store.NewTable[Trainee](testStore)
	col := cache.New[Trainee](table, cache.DefaultConfig[Trainee]())

	tr := newTrainee("Ari Cho")
	if err := col.Put(ctx, tr.ID, tr); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	t.Cleanup(func() { _ = col.Delete(context.Background(), tr.ID) })

	const writers = 5
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := col.GetUpdate(ctx, tr.ID, func(s *Trainee) {
				s.Notes = append(s.Notes, model.Note{ID: s.NoteCounter.Increment(), User: "kim", Content: fmt.Sprint(i)})
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("GetUpdate failed: %v", err)
		}
	}

	stored, _, err := table.Get(ctx, tr.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(stored.Notes) != writers {
		t.Errorf("expected %d notes, got %d", writers, len(stored.Notes))
	}
	if stored.NoteCounter.Current() != writers {
		t.Errorf("expected counter %d, got %d", writers, stored.NoteCounter.Current())
	}
}

func TestColumn_DiffUpdateIsLastWriterWins(t *testing.T) {
	ctx := context.Background()
	table := store.NewTable[Trainee](testStore)
	a := cache.New[Trainee](table, cache.DefaultConfig[Trainee]())
	b := cache.New[Trainee](table, cache.DefaultConfig[Trainee]())

	tr := newTrainee("Lee Wu")
	if err := a.Put(ctx, tr.ID, tr); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	t.Cleanup(func() { _ = a.Delete(context.Background(), tr.ID) })

	snapA, _, _ := a.Get(ctx, tr.ID)
	snapB, _, _ := b.Get(ctx, tr.ID)

	if err := a.DiffUpdate(ctx, tr.ID, snapA, func(s *Trainee) { s.Belt = "Orange" }); err != nil {
		t.Fatalf("DiffUpdate failed: %v", err)
	}
	if err := b.DiffUpdate(ctx, tr.ID, snapB, func(s *Trainee) { s.Name = "Lee Wu-Park" }); err != nil {
		t.Fatalf("DiffUpdate failed: %v", err)
	}

	stored, _, err := table.Get(ctx, tr.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Name != "Lee Wu-Park" {
		t.Errorf("expected second writer's name, got %s", stored.Name)
	}
	if stored.Belt != "White" {
		t.Errorf("expected the first writer's belt to be overwritten, got %s", stored.Belt)
	}
}
