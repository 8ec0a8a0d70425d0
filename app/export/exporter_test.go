package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"reflect"
	"testing"

	"github.com/lysyi3m/channel-comb/app/database"
)

type fakeExportStore struct {
	sets [][]string
	err  error
}

func (f *fakeExportStore) SaveExportSet(ids []string) error {
	if f.err != nil {
		return f.err
	}
	f.sets = append(f.sets, ids)
	return nil
}

func int64Ptr(v int64) *int64 { return &v }

func TestWrite_RendersOrderedFields(t *testing.T) {
	channels := []database.Channel{
		{
			ID:          "UC1",
			URL:         "https://www.youtube.com/channel/UC1",
			Name:        "Crypto Daily",
			Subscribers: int64Ptr(12500),
			Language:    "en",
			Email:       "hello@daily.io",
			Messenger:   "https://t.me/daily",
			CryptoHits:  3,
			Links:       []string{"https://daily.io", "https://t.me/daily"},
		},
		{ID: "UC2", URL: "https://www.youtube.com/channel/UC2", Name: "Mystery Coins"},
	}
	store := &fakeExportStore{}
	var buf bytes.Buffer

	if err := NewExporter(store).Write(&buf, channels); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Output is not valid CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d", len(rows))
	}

	expectedHeader := []string{"channel_id", "url", "name", "subscribers", "language",
		"email", "messenger", "crypto_hits", "links"}
	if !reflect.DeepEqual(rows[0], expectedHeader) {
		t.Errorf("Unexpected header: %v", rows[0])
	}

	expected := []string{"UC1", "https://www.youtube.com/channel/UC1", "Crypto Daily",
		"12500", "en", "hello@daily.io", "https://t.me/daily", "3",
		"https://daily.io|https://t.me/daily"}
	if !reflect.DeepEqual(rows[1], expected) {
		t.Errorf("Unexpected first row: %v", rows[1])
	}

	// Unknown subscriber count renders empty, not zero.
	if rows[2][3] != "" {
		t.Errorf("Expected empty subscribers cell, got %q", rows[2][3])
	}
}

func TestWrite_RecordsExportSet(t *testing.T) {
	channels := []database.Channel{{ID: "UC2"}, {ID: "UC1"}}
	store := &fakeExportStore{}

	if err := NewExporter(store).Write(&bytes.Buffer{}, channels); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	if len(store.sets) != 1 || !reflect.DeepEqual(store.sets[0], []string{"UC2", "UC1"}) {
		t.Errorf("Expected export set in render order, got %v", store.sets)
	}
}

func TestWrite_SurfacesStoreFailure(t *testing.T) {
	store := &fakeExportStore{err: errors.New("disk full")}
	err := NewExporter(store).Write(&bytes.Buffer{}, []database.Channel{{ID: "UC1"}})
	if err == nil {
		t.Fatal("Expected error when export set cannot be recorded")
	}
}
