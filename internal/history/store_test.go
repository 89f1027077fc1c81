package history

import (
	"context"
	"testing"

	"github.com/vivalab/interview-agent/internal/models"
)

func TestNilStore_IsNoop(t *testing.T) {
	var store *Store

	id, err := store.Save(context.Background(), models.ResultRecord{User: "ana"})
	if err != nil {
		t.Errorf("nil store Save returned error: %v", err)
	}
	if id != "" {
		t.Errorf("nil store Save returned id %q", id)
	}

	records, err := store.List(context.Background(), "ana", 10)
	if err != nil {
		t.Errorf("nil store List returned error: %v", err)
	}
	if records != nil {
		t.Errorf("nil store List returned records: %v", records)
	}
}
