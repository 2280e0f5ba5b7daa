package repo

import (
	"io/ioutil"
	"os"
	"path"
	"strings"
	"testing"

	"github.com/quillpay/quill/database"
	"github.com/quillpay/quill/models"
)

func TestNewRepo(t *testing.T) {
	var dir = path.Join(os.TempDir(), "quill", "newRepoTest")
	r, err := NewRepo(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer r.DestroyRepo()

	if r.DB() == nil {
		t.Error("Failed to initialize the database")
	}

	if r.DataDir() != dir {
		t.Errorf("Expected data dir %s, got %s", dir, r.DataDir())
	}

	// The migrated tables must be usable.
	err = r.DB().Update(func(tx database.Tx) error {
		return tx.Save(&models.NameValue{Name: "abc", Value: []byte("123")})
	})
	if err != nil {
		t.Fatal(err)
	}

	version, err := ioutil.ReadFile(path.Join(dir, versionFileName))
	if err != nil {
		t.Fatal(err)
	}
	if string(version) != "0" {
		t.Errorf("Expected version 0, got %s", string(version))
	}
}

func TestCreateDefaultConfigFile(t *testing.T) {
	var (
		dir        = path.Join(os.TempDir(), "quill", "configTest")
		configPath = path.Join(dir, defaultConfigFilename)
	)
	defer os.RemoveAll(dir)

	if err := createDefaultConfigFile(configPath); err != nil {
		t.Fatal(err)
	}

	out, err := ioutil.ReadFile(configPath)
	if err != nil {
		t.Fatal(err)
	}

	// The cookie line must have been populated with a random value.
	var found bool
	for _, line := range strings.Split(string(out), "\n") {
		if strings.HasPrefix(line, "cookie=") {
			if len(strings.TrimPrefix(line, "cookie=")) != 40 {
				t.Errorf("Expected a 40 character cookie, got %q", line)
			}
			found = true
		}
	}
	if !found {
		t.Error("Config file is missing the cookie line")
	}
}

func TestAppDataDir(t *testing.T) {
	tests := []struct {
		goos     string
		contains string
	}{
		{"linux", ".quill"},
		{"darwin", "Application Support"},
		{"plan9", "quill"},
	}
	for _, test := range tests {
		dir := appDataDir(test.goos, "quill", false)
		if !strings.Contains(dir, test.contains) {
			t.Errorf("%s: expected path containing %q, got %q", test.goos, test.contains, dir)
		}
	}
}
