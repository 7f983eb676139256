package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	st, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	key := PDFKey(uuid.New(), uuid.New())

	ok, err := st.Exists(ctx, key)
	if err != nil || ok {
		t.Fatalf("fresh key should not exist (ok=%v, err=%v)", ok, err)
	}

	if err := st.Put(ctx, key, strings.NewReader("%PDF-1.4 fake"), "application/pdf"); err != nil {
		t.Fatalf("put: %v", err)
	}

	ok, err = st.Exists(ctx, key)
	if err != nil || !ok {
		t.Fatalf("key should exist after put (ok=%v, err=%v)", ok, err)
	}

	rc, err := st.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "%PDF-1.4 fake" {
		t.Errorf("body = %q", body)
	}

	if err := st.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, _ := st.Exists(ctx, key); ok {
		t.Error("key should be gone after delete")
	}
	// deleting a missing key is not an error
	if err := st.Delete(ctx, key); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	st, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"../outside", "/etc/passwd", "a/../../b", "."} {
		if err := st.Put(context.Background(), key, strings.NewReader("x"), ""); err == nil {
			t.Errorf("key %q should be rejected", key)
		}
	}
}

func TestPDFKey(t *testing.T) {
	user := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	article := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	got := PDFKey(user, article)
	want := "pdfs/11111111-1111-1111-1111-111111111111/22222222-2222-2222-2222-222222222222.pdf"
	if got != want {
		t.Errorf("PDFKey = %q, want %q", got, want)
	}
}
