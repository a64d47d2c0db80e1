package hub

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanRelativeFilePath(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"foo/bar", "foo/bar"},
		{"foo/../bar", "bar"},
		{"foo/./bar", "foo/bar"},
		{"/foo/bar", "foo/bar"},
		{"foo//bar", "foo/bar"},
		{"foo/bar/..", "foo"},
		{"../foo/bar", "foo/bar"},
		{"foo/../../../..", "."},
		{"foo/../../../bar", "bar"},
		{"", "."},
		{".", "."},
		{"..", "."},
	}

	for _, tc := range testCases {
		expected := filepath.FromSlash(tc.expected)
		got := cleanRelativeFilePath(tc.input)
		fmt.Printf("\tcleanRelativeFilePath(%q) = %q\n", tc.input, got)
		assert.Equal(t, expected, got)
	}
}

// testRepo returns a Repo whose info is already populated, so tests don't hit the network.
func testRepo() *Repo {
	r := New("google/gemma-2-2b-it").WithVerbosity(0)
	r.info = &RepoInfo{
		ID:         "google/gemma-2-2b-it",
		CommitHash: "299a8560bedf22ed1c72a8a11e7df5be330374fa",
		Siblings: []*FileInfo{
			{Name: "config.json"},
			{Name: "tokenizer.model"},
			{Name: "tokenizer_config.json"},
		},
	}
	return r
}

func TestFlatFolderName(t *testing.T) {
	r := testRepo()
	assert.Equal(t, "models--google--gemma-2-2b-it", r.flatFolderName())

	d := New("squad").WithType(RepoTypeDataset)
	assert.Equal(t, "datasets--squad", d.flatFolderName())
}

func TestFileURL(t *testing.T) {
	r := testRepo()
	url, err := r.FileURL("tokenizer.model")
	require.NoError(t, err)
	assert.Equal(t,
		"https://huggingface.co/google/gemma-2-2b-it/resolve/299a8560bedf22ed1c72a8a11e7df5be330374fa/tokenizer.model",
		url)

	d := testRepo().WithType(RepoTypeDataset).WithEndpoint("https://example.com")
	url, err = d.FileURL("data.json")
	require.NoError(t, err)
	assert.Equal(t,
		"https://example.com/datasets/google/gemma-2-2b-it/resolve/299a8560bedf22ed1c72a8a11e7df5be330374fa/data.json",
		url)
}

func TestIterFileNames(t *testing.T) {
	r := testRepo()
	var names []string
	for name, err := range r.IterFileNames() {
		require.NoError(t, err)
		names = append(names, name)
	}
	assert.Equal(t, []string{"config.json", "tokenizer.model", "tokenizer_config.json"}, names)
}

func TestIterFileNamesRejectsIllegalNames(t *testing.T) {
	r := testRepo()
	r.info.Siblings = append(r.info.Siblings, &FileInfo{Name: "../escape"})
	var lastErr error
	for _, err := range r.IterFileNames() {
		lastErr = err
	}
	assert.Error(t, lastErr)
}

func TestHasFile(t *testing.T) {
	r := testRepo()
	assert.True(t, r.HasFile("tokenizer.model"))
	assert.False(t, r.HasFile("tokenizer.json"))
}

func TestInfoURL(t *testing.T) {
	r := testRepo().WithRevision("main")
	assert.Equal(t, "https://huggingface.co/api/models/google/gemma-2-2b-it/revision/main", r.infoURL())
}

func TestParseRepoInfo(t *testing.T) {
	const infoJson = `{
	  "id": "google/gemma-2-2b-it",
	  "author": "google",
	  "sha": "299a8560bedf22ed1c72a8a11e7df5be330374fa",
	  "tags": ["gemma2", "text-generation"],
	  "siblings": [{"rfilename": "tokenizer.model"}, {"rfilename": "tokenizer_config.json"}],
	  "safetensors": {"total": 2614341888, "parameters": {"BF16": 2614341888}}
	}`
	info := &RepoInfo{}
	require.NoError(t, json.Unmarshal([]byte(infoJson), info))
	assert.Equal(t, "299a8560bedf22ed1c72a8a11e7df5be330374fa", info.CommitHash)
	assert.Len(t, info.Siblings, 2)
	assert.Equal(t, "tokenizer.model", info.Siblings[0].Name)
	assert.Equal(t, 2614341888, info.SafeTensors.Total)
	assert.Equal(t, 2614341888, info.SafeTensors.Parameters["BF16"])
}
