package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

type fakeStorage struct {
	objects map[string]string
}

func (f fakeStorage) Upload(ctx context.Context, bucket, object string, r io.Reader) error {
	return errors.New("read only")
}

func (f fakeStorage) Download(ctx context.Context, bucket, object string) ([]byte, error) {
	data, ok := f.objects[bucket+"/"+object]
	if !ok {
		return nil, errors.New("storage: object doesn't exist")
	}
	return []byte(data), nil
}

const validSnapshot = `{
  "categories": [{"id": "cat-food", "name": "Food", "subcategories": [{"id": "sub-dining", "name": "Dining", "category_id": "cat-food"}]}],
  "accounts": [{"id": "acc-1", "name": "Checking", "account_type": "depository"}],
  "transactions": [{"id": "t1", "name": "Coffee", "amount": "4.50", "date": "2024-01-05", "account_id": "acc-1",
    "category": {"id": "cat-food", "name": "Food"}, "subcategory": {"id": "sub-dining", "name": "Dining", "category_id": "cat-food"}}],
  "budgets": []
}`

func TestReadSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")
	if err := os.WriteFile(path, []byte(validSnapshot), 0o600); err != nil {
		t.Fatal(err)
	}
	storage := fakeStorage{objects: map[string]string{"seeds/2024/snap.json": validSnapshot}}

	for _, source := range []string{path, "gs://seeds/2024/snap.json"} {
		data, err := readSource(context.Background(), storage, source)
		if err != nil || string(data) != validSnapshot {
			t.Errorf("readSource(%q) = %d bytes, %v", source, len(data), err)
		}
	}

	if _, err := readSource(context.Background(), storage, "gs://seeds"); err == nil {
		t.Error("expected error for URI without object")
	}
	if _, err := readSource(context.Background(), storage, "gs://seeds/missing.json"); err == nil {
		t.Error("expected error for missing object")
	}
}
