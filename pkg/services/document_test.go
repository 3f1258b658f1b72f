package services

import (
	"testing"

	"github.com/dukex/flowdraft/pkg/diff"
	"github.com/dukex/flowdraft/pkg/events"
	"github.com/dukex/flowdraft/pkg/mocks"
	"github.com/dukex/flowdraft/pkg/otelhelper"
	"github.com/dukex/flowdraft/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newDocumentService(t *testing.T, opts ...Option) *Document {
	t.Helper()

	return NewDocument(file.NewPersistence(t.TempDir()), nil, opts...)
}

func TestDocument_CreateAndUpdate(t *testing.T) {
	service := newDocumentService(t)

	document, err := service.Create(t.Context(), "Style guide", "the quick brown fox", "ana")
	require.NoError(t, err)
	assert.NotEmpty(t, document.ID)
	assert.Equal(t, 1, document.CurrentVersion)

	updated, snapshot, err := service.Update(t.Context(), document.ID, "the slow brown fox", "ben")
	require.NoError(t, err)
	assert.Equal(t, 2, updated.CurrentVersion)
	assert.Equal(t, 2, snapshot.Version)
	assert.Equal(t, "ben", snapshot.Author)

	versions, err := service.Versions(t.Context(), document.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "the quick brown fox", *versions[0].Content)

	documents, err := service.List(t.Context())
	require.NoError(t, err)
	assert.Len(t, documents, 1)
}

func TestDocument_CreateRequiresTitle(t *testing.T) {
	service := newDocumentService(t)

	_, err := service.Create(t.Context(), " ", "body", "ana")
	assert.ErrorIs(t, err, ErrDocumentTitleMissing)
	assert.True(t, IsValidationError(err))
}

func TestDocument_NotFound(t *testing.T) {
	service := newDocumentService(t)

	_, err := service.FetchByID(t.Context(), "missing")
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	_, _, err = service.Update(t.Context(), "missing", "body", "ana")
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	_, err = service.Versions(t.Context(), "missing")
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	_, err = service.Compare(t.Context(), "missing", 1, 2)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestDocument_Compare(t *testing.T) {
	service := newDocumentService(t)

	document, err := service.Create(t.Context(), "Notes", "the quick brown fox", "ana")
	require.NoError(t, err)

	_, _, err = service.Update(t.Context(), document.ID, "the slow brown fox", "ana")
	require.NoError(t, err)

	comparison, err := service.Compare(t.Context(), document.ID, 1, 2)
	require.NoError(t, err)

	assert.False(t, comparison.ContentUnavailable)
	assert.Equal(t, diff.GranularityWord, comparison.Granularity)
	assert.Equal(t, []diff.Run{
		{Value: "the"},
		{Value: "quick", Removed: true},
		{Value: "slow", Added: true},
		{Value: "brown fox"},
	}, comparison.Runs)
	assert.Equal(t, diff.Stats{Added: 1, Removed: 1, Unchanged: 3}, comparison.Stats)
}

func TestDocument_CompareRecordsGranularity(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	service := NewDocument(file.NewPersistence(t.TempDir()), diff.NewDiffer(1), WithTracer(provider.Tracer("test")))

	document, err := service.Create(t.Context(), "Notes", "one two\nthree", "ana")
	require.NoError(t, err)

	_, _, err = service.Update(t.Context(), document.ID, "one two\nfour", "ana")
	require.NoError(t, err)

	comparison, err := service.Compare(t.Context(), document.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, diff.GranularityLine, comparison.Granularity)

	var compareSpan sdktrace.ReadOnlySpan

	for _, span := range recorder.Ended() {
		if span.Name() == "document.compare" {
			compareSpan = span
		}
	}

	require.NotNil(t, compareSpan)
	assert.Contains(t, compareSpan.Attributes(), attribute.String(otelhelper.DiffGranularityKey, "line"))
	assert.Contains(t, compareSpan.Attributes(), attribute.String(otelhelper.DocumentIDKey, document.ID))
}

func TestDocument_CompareInvalidVersions(t *testing.T) {
	service := newDocumentService(t)

	document, err := service.Create(t.Context(), "Notes", "body", "ana")
	require.NoError(t, err)

	_, err = service.Compare(t.Context(), document.ID, 0, 1)
	require.ErrorIs(t, err, ErrInvalidVersion)
	assert.True(t, IsValidationError(err))

	_, err = service.Compare(t.Context(), document.ID, 1, 9)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestDocument_CompareLegacySnapshot(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	service := NewDocument(persistence, diff.NewDiffer(0))

	document, err := service.Create(t.Context(), "Notes", "body", "ana")
	require.NoError(t, err)

	_, _, err = persistence.DocumentRepository().AppendSnapshot(t.Context(), document.ID, nil, "import", nil)
	require.NoError(t, err)

	comparison, err := service.Compare(t.Context(), document.ID, 1, 2)
	require.NoError(t, err)
	assert.True(t, comparison.ContentUnavailable)
	assert.Equal(t, ContentUnavailableMessage, comparison.Message)
	assert.Empty(t, comparison.Runs)
}

func TestDocument_Restore(t *testing.T) {
	bus := &mocks.MockEventBus{}
	service := newDocumentService(t, WithPublisher(bus))

	document, err := service.Create(t.Context(), "Notes", "first draft", "ana")
	require.NoError(t, err)

	_, _, err = service.Update(t.Context(), document.ID, "second draft", "ben")
	require.NoError(t, err)

	bus.On("Publish", mock.Anything, document.ID, mock.MatchedBy(func(e events.DocumentRestored) bool {
		return e.FromVersion == 1 && e.NewVersion == 3 && e.RestoredBy == "cid"
	})).Return(nil).Once()

	restored, snapshot, err := service.Restore(t.Context(), document.ID, 1, "cid")
	require.NoError(t, err)

	assert.Equal(t, "first draft", restored.Content)
	assert.Equal(t, 3, restored.CurrentVersion)
	assert.Equal(t, 3, snapshot.Version)
	require.NotNil(t, snapshot.RestoredFrom)
	assert.Equal(t, 1, *snapshot.RestoredFrom)

	versions, err := service.Versions(t.Context(), document.ID)
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.Equal(t, "second draft", *versions[1].Content)

	bus.AssertExpectations(t)
}

func TestDocument_RestoreLegacySnapshot(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	service := NewDocument(persistence, nil)

	document, err := service.Create(t.Context(), "Notes", "body", "ana")
	require.NoError(t, err)

	_, _, err = persistence.DocumentRepository().AppendSnapshot(t.Context(), document.ID, nil, "import", nil)
	require.NoError(t, err)

	_, _, err = service.Restore(t.Context(), document.ID, 2, "ana")
	require.ErrorIs(t, err, ErrContentUnavailable)
	assert.True(t, IsConflictError(err))

	versions, err := service.Versions(t.Context(), document.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 2)

	_, _, err = service.Restore(t.Context(), document.ID, 0, "ana")
	assert.ErrorIs(t, err, ErrInvalidVersion)
}

func TestDocument_RestoreMissingVersion(t *testing.T) {
	service := newDocumentService(t)

	document, err := service.Create(t.Context(), "Notes", "body", "ana")
	require.NoError(t, err)

	_, _, err = service.Restore(t.Context(), document.ID, 5, "ana")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
	assert.True(t, IsNotFoundError(err))
}
