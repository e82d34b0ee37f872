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
	objects map[string][]byte
}

func (f *fakeStorage) Upload(ctx context.Context, bucket, object string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[bucket+"/"+object] = data
	return nil
}

func (f *fakeStorage) Download(ctx context.Context, bucket, object string) ([]byte, error) {
	return nil, errors.New("write only")
}

const snapshot = `{"categories": [], "accounts": [{"id": "acc-1", "name": "Checking"}],
  "transactions": [{"id": "t1", "name": "Coffee", "amount": "4.50", "date": "2024-01-05", "account_id": "acc-1"}],
  "budgets": []}`

func TestUpload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jan.json")
	if err := os.WriteFile(path, []byte(snapshot), 0o600); err != nil {
		t.Fatal(err)
	}

	storage := &fakeStorage{objects: map[string][]byte{}}
	uri, err := upload(context.Background(), storage, "seeds", "", path)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if uri != "gs://seeds/snapshots/jan.json" {
		t.Errorf("uri = %q", uri)
	}
	if string(storage.objects["seeds/snapshots/jan.json"]) != snapshot {
		t.Error("uploaded bytes differ from the file")
	}

	uri, err = upload(context.Background(), storage, "seeds", "custom/name.json", path)
	if err != nil || uri != "gs://seeds/custom/name.json" {
		t.Errorf("explicit object: uri = %q, err = %v", uri, err)
	}
}

func TestUpload_RejectsInvalidSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	bad := `{"accounts": [], "transactions": [{"id": "t1", "account_id": "acc-9", "date": "2024-01-05", "amount": "1"}]}`
	if err := os.WriteFile(path, []byte(bad), 0o600); err != nil {
		t.Fatal(err)
	}

	storage := &fakeStorage{objects: map[string][]byte{}}
	if _, err := upload(context.Background(), storage, "seeds", "", path); err == nil {
		t.Fatal("expected validation error")
	}
	if len(storage.objects) != 0 {
		t.Error("invalid snapshot was uploaded")
	}
}
