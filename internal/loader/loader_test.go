package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fund-review-rag/internal/apperrors"

	"github.com/stretchr/testify/require"
)

func TestLoadTextFile(t *testing.T) {
	segments, err := Load([]byte("Total approved budget: $100,000\n"), "grant.txt")
	require.NoError(t, err)
	require.Len(t, segments, 1)
	require.Equal(t, "Total approved budget: $100,000", segments[0].Text)
	require.Equal(t, "grant.txt", segments[0].Source)
}

func TestLoadMarkdownFile(t *testing.T) {
	segments, err := Load([]byte("# Project Plan\n\nBudget breakdown follows."), "plan.md")
	require.NoError(t, err)
	require.Len(t, segments, 1)
	require.Contains(t, segments[0].Text, "Budget breakdown")
}

func TestLoadExtensionCaseInsensitive(t *testing.T) {
	segments, err := Load([]byte("content"), "REPORT.TXT")
	require.NoError(t, err)
	require.Len(t, segments, 1)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	_, err := Load([]byte("data"), "document.xyz")
	var unsupported *apperrors.UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
	require.Equal(t, ".xyz", unsupported.Ext)
	require.Equal(t, "Unsupported file type: .xyz", err.Error())
}

func TestLoadMissingExtension(t *testing.T) {
	_, err := Load([]byte("data"), "document")
	var unsupported *apperrors.UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
}

func TestLoadEmptyTextFile(t *testing.T) {
	_, err := Load([]byte{}, "empty.txt")
	require.ErrorIs(t, err, apperrors.ErrEmptyDocument)
}

func TestLoadWhitespaceOnlyFile(t *testing.T) {
	_, err := Load([]byte("   \n\t\n  "), "blank.txt")
	require.ErrorIs(t, err, apperrors.ErrEmptyDocument)
}

func TestLoadCorruptPDFCleansUpTempFile(t *testing.T) {
	before := countTempUploads(t)

	_, err := Load([]byte("this is not a pdf"), "broken.pdf")
	require.Error(t, err)
	require.False(t, errors.Is(err, apperrors.ErrEmptyDocument))

	after := countTempUploads(t)
	require.Equal(t, before, after, "temp upload file was not removed after parse failure")
}

func TestLoadCorruptDocxCleansUpTempFile(t *testing.T) {
	before := countTempUploads(t)

	_, err := Load([]byte("not a zip archive"), "broken.docx")
	require.Error(t, err)

	after := countTempUploads(t)
	require.Equal(t, before, after)
}

func countTempUploads(t *testing.T) int {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(os.TempDir(), "upload-*"))
	require.NoError(t, err)
	return len(matches)
}
