package storage

import (
	"errors"
	"reflect"
	"testing"

	"github.com/acolita/termhost/internal/testing/fakes/fakefs"
)

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestLoad_MissingFileYieldsDefault(t *testing.T) {
	fs := fakefs.New()

	got := Load(fs, "/data/missing.json", record{Name: "default"})
	if got.Name != "default" {
		t.Errorf("Load = %+v, want the default", got)
	}
}

func TestLoad_CorruptFileYieldsDefault(t *testing.T) {
	fs := fakefs.New()
	fs.AddFile("/data/bad.json", []byte("{truncated"), 0o644)

	got := Load(fs, "/data/bad.json", []string{"fallback"})
	if !reflect.DeepEqual(got, []string{"fallback"}) {
		t.Errorf("Load = %v, want the default", got)
	}
}

func TestLoad_ValidFile(t *testing.T) {
	fs := fakefs.New()
	fs.AddFile("/data/ok.json", []byte(`{"name":"x","count":3}`), 0o644)

	got := Load(fs, "/data/ok.json", record{})
	if got.Name != "x" || got.Count != 3 {
		t.Errorf("Load = %+v, want {x 3}", got)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	fs := fakefs.New()
	want := record{Name: "session", Count: 7}

	if err := Save(fs, "/data/nested/dir/out.json", want); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	// Parent directories are created on first write.
	got := Load(fs, "/data/nested/dir/out.json", record{})
	if got != want {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestSave_WriteFailurePropagates(t *testing.T) {
	fs := fakefs.New()
	fs.SetWriteErr("/data/out.json", errors.New("disk full"))

	if err := Save(fs, "/data/out.json", record{}); err == nil {
		t.Fatal("Save should propagate write failures")
	}
}

func TestSave_UnmarshalableValueFails(t *testing.T) {
	fs := fakefs.New()

	if err := Save(fs, "/data/out.json", make(chan int)); err == nil {
		t.Fatal("Save should fail on unmarshalable values")
	}
}
