package core

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFile is an in-memory core.FileStore. Events pushed into its channel
// simulate debounced external changes.
type fakeFile struct {
	path string

	mu        sync.Mutex
	data      []byte
	exists    bool
	writes    int
	blockRead chan struct{}

	events chan FileEvent
}

func newFakeFile(path string) *fakeFile {
	return &fakeFile{path: path, events: make(chan FileEvent, 4)}
}

func (f *fakeFile) Path() string { return f.path }

func (f *fakeFile) Read(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	block := f.blockRead
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.exists {
		return nil, ErrNotFound
	}
	return append([]byte(nil), f.data...), nil
}

func (f *fakeFile) Write(ctx context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = append([]byte(nil), data...)
	f.exists = true
	f.writes++
	return nil
}

func (f *fakeFile) Remove(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exists = false
	return nil
}

func (f *fakeFile) Watch(ctx context.Context) (<-chan FileEvent, error) {
	return f.events, nil
}

func (f *fakeFile) Close() error { return nil }

func (f *fakeFile) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *fakeFile) seed(t *testing.T, stacks []*Stack) {
	t.Helper()
	data, err := json.Marshal(stacks)
	require.NoError(t, err)
	f.mu.Lock()
	f.data = data
	f.exists = true
	f.mu.Unlock()
}

// fakeEnv hands out one fakeFile per path, so legacy probe paths and primary
// paths resolve consistently across Open calls.
type fakeEnv struct {
	mu    sync.Mutex
	files map[string]*fakeFile
}

func newFakeEnv() *fakeEnv {
	return &fakeEnv{files: make(map[string]*fakeFile)}
}

func (e *fakeEnv) file(path string) *fakeFile {
	e.mu.Lock()
	defer e.mu.Unlock()
	f, ok := e.files[path]
	if !ok {
		f = newFakeFile(path)
		e.files[path] = f
	}
	return f
}

func (e *fakeEnv) open(path string) (FileStore, error) {
	return e.file(path), nil
}

func resolveTest(folder string) Location {
	return Location{
		Primary: filepath.Join(folder, "data.json"),
		Legacy:  []string{filepath.Join(folder, "legacy.json")},
	}
}

// fakeCodec round-trips the model through plain JSON. Decode never reports an
// upgrade; legacy-shape handling is covered by the real codec's own tests.
type fakeCodec struct{}

func (fakeCodec) Encode(stacks []*Stack, folder string) ([]byte, error) {
	return json.Marshal(stacks)
}

func (fakeCodec) Decode(data []byte, folder string) ([]*Stack, bool, error) {
	var stacks []*Stack
	if err := json.Unmarshal(data, &stacks); err != nil {
		return nil, false, err
	}
	return stacks, false, nil
}

func newTestStore(t *testing.T, env *fakeEnv) *Store {
	t.Helper()
	store, err := NewStore(Config{
		Resolve: resolveTest,
		Open:    env.open,
		Codec:   fakeCodec{},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func bind(t *testing.T, store *Store, folder string) {
	t.Helper()
	require.NoError(t, store.BindFolder(context.Background(), folder))
}

func TestStoreStartsEmpty(t *testing.T) {
	env := newFakeEnv()
	store := newTestStore(t, env)
	bind(t, store, "/ws")

	stacks, err := store.Stacks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stacks)
	assert.Equal(t, "/ws", store.Folder())
	assert.Equal(t, filepath.Join("/ws", "data.json"), store.DataFilePath())
}

func TestUnboundQueriesAndMutationsAreNoOps(t *testing.T) {
	env := newFakeEnv()
	store := newTestStore(t, env)
	ctx := context.Background()

	stacks, err := store.Stacks(ctx)
	require.NoError(t, err)
	assert.Nil(t, stacks)

	m, err := store.AddMarker(ctx, MarkerInput{File: "a.go", Code: "x"})
	require.NoError(t, err)
	assert.Nil(t, m)

	st, err := store.CreateStack(ctx)
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestAddMarkerCreatesActiveStackWithLazyTitle(t *testing.T) {
	env := newFakeEnv()
	store := newTestStore(t, env)
	bind(t, store, "/ws")
	ctx := context.Background()

	m, err := store.AddMarker(ctx, MarkerInput{
		File: "src/main.go",
		Line: 10,
		Code: "func main() { return }",
	})
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, filepath.Join("/ws", "src/main.go"), m.File)

	st, err := store.ActiveStack(ctx)
	require.NoError(t, err)
	require.NotNil(t, st)
	require.Len(t, st.Markers, 1)
	assert.Equal(t, "func main() { re "+time.Now().Format("2006-01-02"), st.Title)
}

func TestMarkersAppendInOrder(t *testing.T) {
	env := newFakeEnv()
	store := newTestStore(t, env)
	bind(t, store, "/ws")
	ctx := context.Background()

	for _, code := range []string{"a", "b", "c"} {
		_, err := store.AddMarker(ctx, MarkerInput{File: "f.go", Code: code})
		require.NoError(t, err)
	}

	st, err := store.ActiveStack(ctx)
	require.NoError(t, err)
	require.Len(t, st.Markers, 3)
	assert.Equal(t, "a", st.Markers[0].Code)
	assert.Equal(t, "b", st.Markers[1].Code)
	assert.Equal(t, "c", st.Markers[2].Code)
}

func TestCreateStackDeactivatesOthersAndPrunesThrowaways(t *testing.T) {
	env := newFakeEnv()
	store := newTestStore(t, env)
	bind(t, store, "/ws")
	ctx := context.Background()

	_, err := store.CreateStack(ctx)
	require.NoError(t, err)

	// An untitled empty stack is dropped by the next CreateStack.
	second, err := store.CreateStack(ctx)
	require.NoError(t, err)

	stacks, err := store.Stacks(ctx)
	require.NoError(t, err)
	require.Len(t, stacks, 1)
	assert.Equal(t, second.ID, stacks[0].ID)
	assert.True(t, stacks[0].IsActive)

	// A titled empty stack survives and is deactivated.
	require.NoError(t, store.RenameStack(ctx, second.ID, "keep me"))
	third, err := store.CreateStack(ctx)
	require.NoError(t, err)

	stacks, err = store.Stacks(ctx)
	require.NoError(t, err)
	require.Len(t, stacks, 2)
	assert.Equal(t, third.ID, stacks[0].ID)
	assert.True(t, stacks[0].IsActive)
	assert.Equal(t, second.ID, stacks[1].ID)
	assert.False(t, stacks[1].IsActive)
}

func TestAtMostOneActiveStack(t *testing.T) {
	env := newFakeEnv()
	store := newTestStore(t, env)
	bind(t, store, "/ws")
	ctx := context.Background()

	a, err := store.CreateStack(ctx)
	require.NoError(t, err)
	require.NoError(t, store.RenameStack(ctx, a.ID, "a"))
	b, err := store.CreateStack(ctx)
	require.NoError(t, err)
	require.NoError(t, store.RenameStack(ctx, b.ID, "b"))

	require.NoError(t, store.ActivateStack(ctx, a.ID))

	stacks, err := store.Stacks(ctx)
	require.NoError(t, err)
	active := 0
	for _, st := range stacks {
		if st.IsActive {
			active++
			assert.Equal(t, a.ID, st.ID)
		}
	}
	assert.Equal(t, 1, active)

	// Unknown id changes nothing.
	require.NoError(t, store.ActivateStack(ctx, "nope"))
	st, err := store.ActiveStack(ctx)
	require.NoError(t, err)
	assert.Equal(t, a.ID, st.ID)
}

func addThree(t *testing.T, store *Store) (ids [3]string) {
	t.Helper()
	ctx := context.Background()
	for i, code := range []string{"A", "B", "C"} {
		m, err := store.AddMarker(ctx, MarkerInput{File: "f.go", Code: code})
		require.NoError(t, err)
		ids[i] = m.ID
	}
	return ids
}

func markerCodes(t *testing.T, store *Store) []string {
	t.Helper()
	st, err := store.ActiveStack(context.Background())
	require.NoError(t, err)
	require.NotNil(t, st)
	codes := make([]string, 0, len(st.Markers))
	for _, m := range st.Markers {
		codes = append(codes, m.Code)
	}
	return codes
}

func TestMoveMarkerAfterTarget(t *testing.T) {
	t.Run("Forward", func(t *testing.T) {
		env := newFakeEnv()
		store := newTestStore(t, env)
		bind(t, store, "/ws")
		ids := addThree(t, store)

		// A after C.
		require.NoError(t, store.MoveMarker(context.Background(), ids[0], ids[2], TargetMarker))
		assert.Equal(t, []string{"B", "C", "A"}, markerCodes(t, store))
	})

	t.Run("Backward", func(t *testing.T) {
		env := newFakeEnv()
		store := newTestStore(t, env)
		bind(t, store, "/ws")
		ids := addThree(t, store)

		// C after A.
		require.NoError(t, store.MoveMarker(context.Background(), ids[2], ids[0], TargetMarker))
		assert.Equal(t, []string{"A", "C", "B"}, markerCodes(t, store))
	})

	t.Run("Self Target Is NoOp", func(t *testing.T) {
		env := newFakeEnv()
		store := newTestStore(t, env)
		bind(t, store, "/ws")
		ids := addThree(t, store)

		require.NoError(t, store.MoveMarker(context.Background(), ids[1], ids[1], TargetMarker))
		assert.Equal(t, []string{"A", "B", "C"}, markerCodes(t, store))
	})
}

// addStacks creates three named stacks. CreateStack inserts at the front,
// so the resulting display order is s3, s2, s1.
func addStacks(t *testing.T, store *Store) (ids map[string]string) {
	t.Helper()
	ctx := context.Background()
	ids = make(map[string]string, 3)
	for _, title := range []string{"s1", "s2", "s3"} {
		st, err := store.CreateStack(ctx)
		require.NoError(t, err)
		require.NoError(t, store.RenameStack(ctx, st.ID, title))
		ids[title] = st.ID
	}
	return ids
}

func stackTitles(t *testing.T, store *Store) []string {
	t.Helper()
	stacks, err := store.Stacks(context.Background())
	require.NoError(t, err)
	titles := make([]string, 0, len(stacks))
	for _, st := range stacks {
		titles = append(titles, st.Title)
	}
	return titles
}

func TestMoveStackAfterTarget(t *testing.T) {
	t.Run("Forward", func(t *testing.T) {
		env := newFakeEnv()
		store := newTestStore(t, env)
		bind(t, store, "/ws")
		ids := addStacks(t, store)

		// s3 after s1.
		require.NoError(t, store.MoveStack(context.Background(), ids["s3"], ids["s1"]))
		assert.Equal(t, []string{"s2", "s1", "s3"}, stackTitles(t, store))
	})

	t.Run("Backward", func(t *testing.T) {
		env := newFakeEnv()
		store := newTestStore(t, env)
		bind(t, store, "/ws")
		ids := addStacks(t, store)

		// s1 after s3.
		require.NoError(t, store.MoveStack(context.Background(), ids["s1"], ids["s3"]))
		assert.Equal(t, []string{"s3", "s1", "s2"}, stackTitles(t, store))
	})

	t.Run("Unknown IDs Are NoOps", func(t *testing.T) {
		env := newFakeEnv()
		store := newTestStore(t, env)
		bind(t, store, "/ws")
		ids := addStacks(t, store)

		require.NoError(t, store.MoveStack(context.Background(), "nope", ids["s1"]))
		require.NoError(t, store.MoveStack(context.Background(), ids["s1"], "nope"))
		require.NoError(t, store.MoveStack(context.Background(), ids["s2"], ids["s2"]))
		assert.Equal(t, []string{"s3", "s2", "s1"}, stackTitles(t, store))
	})
}

func TestMoveMarkerToStackFront(t *testing.T) {
	env := newFakeEnv()
	store := newTestStore(t, env)
	bind(t, store, "/ws")
	ctx := context.Background()
	ids := addThree(t, store)

	src, err := store.ActiveStack(ctx)
	require.NoError(t, err)

	dst, err := store.CreateStack(ctx)
	require.NoError(t, err)
	require.NoError(t, store.RenameStack(ctx, dst.ID, "dst"))
	_, err = store.AddMarker(ctx, MarkerInput{File: "g.go", Code: "D"})
	require.NoError(t, err)

	require.NoError(t, store.MoveMarker(ctx, ids[2], dst.ID, TargetStack))

	stacks, err := store.Stacks(ctx)
	require.NoError(t, err)
	for _, st := range stacks {
		switch st.ID {
		case src.ID:
			require.Len(t, st.Markers, 2)
		case dst.ID:
			require.Len(t, st.Markers, 2)
			assert.Equal(t, "C", st.Markers[0].Code)
			assert.Equal(t, "D", st.Markers[1].Code)
		}
	}
}

func TestReverseMarkersKeepsIndentedRunsAttached(t *testing.T) {
	env := newFakeEnv()
	store := newTestStore(t, env)
	bind(t, store, "/ws")
	ctx := context.Background()

	inputs := []MarkerInput{
		{File: "f.go", Code: "A", Indent: 0},
		{File: "f.go", Code: "B", Indent: 1},
		{File: "f.go", Code: "C", Indent: 0},
	}
	_, err := store.AddMarkers(ctx, inputs)
	require.NoError(t, err)

	st, err := store.ActiveStack(ctx)
	require.NoError(t, err)
	require.NoError(t, store.ReverseMarkers(ctx, st.ID))

	assert.Equal(t, []string{"C", "A", "B"}, markerCodes(t, store))
}

func TestDeleteMarkerKeepsEmptyStack(t *testing.T) {
	env := newFakeEnv()
	store := newTestStore(t, env)
	bind(t, store, "/ws")
	ctx := context.Background()

	m, err := store.AddMarker(ctx, MarkerInput{File: "f.go", Code: "only"})
	require.NoError(t, err)
	require.NoError(t, store.DeleteMarker(ctx, m.ID))

	stacks, err := store.Stacks(ctx)
	require.NoError(t, err)
	require.Len(t, stacks, 1)
	assert.Empty(t, stacks[0].Markers)
}

func TestBatchAddSavesOnceAndNotifiesOnce(t *testing.T) {
	env := newFakeEnv()
	store := newTestStore(t, env)
	bind(t, store, "/ws")
	ctx := context.Background()

	// Settle the initial load before counting.
	_, err := store.Stacks(ctx)
	require.NoError(t, err)

	updates, cancel := store.Subscribe()
	defer cancel()

	primary := env.file(filepath.Join("/ws", "data.json"))
	before := primary.writeCount()

	_, err = store.AddMarkers(ctx, []MarkerInput{
		{File: "f.go", Code: "A"},
		{File: "f.go", Code: "B"},
		{File: "f.go", Code: "C"},
	})
	require.NoError(t, err)

	assert.Equal(t, before+1, primary.writeCount())

	select {
	case u := <-updates:
		assert.Equal(t, UpdateMutation, u.Kind)
	case <-time.After(time.Second):
		t.Fatal("expected a mutation update")
	}
	select {
	case u := <-updates:
		t.Fatalf("unexpected extra update: %v", u)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUnknownIDsAreSilentNoOps(t *testing.T) {
	env := newFakeEnv()
	store := newTestStore(t, env)
	bind(t, store, "/ws")
	ctx := context.Background()
	addThree(t, store)

	primary := env.file(filepath.Join("/ws", "data.json"))
	before := primary.writeCount()

	require.NoError(t, store.RenameStack(ctx, "nope", "x"))
	require.NoError(t, store.DeleteStack(ctx, "nope"))
	require.NoError(t, store.SetMarkerTitle(ctx, "nope", "x"))
	require.NoError(t, store.DeleteMarker(ctx, "nope"))
	require.NoError(t, store.MoveMarker(ctx, "nope", "nope2", TargetMarker))

	assert.Equal(t, before, primary.writeCount())
}

func TestTagOperations(t *testing.T) {
	env := newFakeEnv()
	store := newTestStore(t, env)
	bind(t, store, "/ws")
	ctx := context.Background()

	m, err := store.AddMarker(ctx, MarkerInput{File: "f.go", Code: "x", Tags: []string{"a", "a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, m.Tags)

	require.NoError(t, store.AddTag(ctx, m.ID, "b")) // already present
	require.NoError(t, store.AddTag(ctx, m.ID, "c"))
	require.NoError(t, store.DeleteTag(ctx, m.ID, "a"))

	st, err := store.ActiveStack(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, st.Markers[0].Tags)
}

func TestIndentClampsAtZero(t *testing.T) {
	env := newFakeEnv()
	store := newTestStore(t, env)
	bind(t, store, "/ws")
	ctx := context.Background()

	m, err := store.AddMarker(ctx, MarkerInput{File: "f.go", Code: "x"})
	require.NoError(t, err)

	require.NoError(t, store.UnindentMarker(ctx, m.ID))
	require.NoError(t, store.IndentMarker(ctx, m.ID))
	require.NoError(t, store.IndentMarker(ctx, m.ID))
	require.NoError(t, store.UnindentMarker(ctx, m.ID))

	st, err := store.ActiveStack(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Markers[0].Indent)
}

func TestExternalChangeTriggersReload(t *testing.T) {
	env := newFakeEnv()
	store := newTestStore(t, env)
	bind(t, store, "/ws")
	ctx := context.Background()

	_, err := store.Stacks(ctx)
	require.NoError(t, err)

	primary := env.file(filepath.Join("/ws", "data.json"))
	primary.seed(t, []*Stack{{ID: "ext", Title: "external", IsActive: true}})
	primary.events <- FileEvent{Type: FileModified, Timestamp: time.Now().Unix()}

	require.Eventually(t, func() bool {
		stacks, err := store.Stacks(ctx)
		return err == nil && len(stacks) == 1 && stacks[0].ID == "ext"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRebindDiscardsStaleLoad(t *testing.T) {
	env := newFakeEnv()

	slow := env.file(filepath.Join("/slow", "data.json"))
	slow.seed(t, []*Stack{{ID: "slow-stack", Title: "slow"}})
	release := make(chan struct{})
	slow.blockRead = release

	fast := env.file(filepath.Join("/fast", "data.json"))
	fast.seed(t, []*Stack{{ID: "fast-stack", Title: "fast"}})

	store := newTestStore(t, env)
	bind(t, store, "/slow")
	bind(t, store, "/fast")
	close(release)

	ctx := context.Background()
	stacks, err := store.Stacks(ctx)
	require.NoError(t, err)
	require.Len(t, stacks, 1)
	assert.Equal(t, "fast-stack", stacks[0].ID)
	assert.Equal(t, "/fast", store.Folder())

	// The stale load must never clobber the new binding, even after it
	// finally completes.
	time.Sleep(100 * time.Millisecond)
	stacks, err = store.Stacks(ctx)
	require.NoError(t, err)
	require.Len(t, stacks, 1)
	assert.Equal(t, "fast-stack", stacks[0].ID)
}

func TestLegacyLocationMigration(t *testing.T) {
	env := newFakeEnv()

	legacy := env.file(filepath.Join("/ws", "legacy.json"))
	legacy.seed(t, []*Stack{{ID: "old", Title: "migrated", IsActive: true,
		Markers: []*Marker{{ID: "m1", File: "/ws/f.go", Code: "x"}}}})

	store := newTestStore(t, env)
	bind(t, store, "/ws")

	ctx := context.Background()
	stacks, err := store.Stacks(ctx)
	require.NoError(t, err)
	require.Len(t, stacks, 1)
	assert.Equal(t, "old", stacks[0].ID)

	primary := env.file(filepath.Join("/ws", "data.json"))
	require.Eventually(t, func() bool {
		return primary.writeCount() > 0
	}, 2*time.Second, 10*time.Millisecond)

	// Best-effort cleanup of the migrated file.
	require.Eventually(t, func() bool {
		legacy.mu.Lock()
		defer legacy.mu.Unlock()
		return !legacy.exists
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCorruptDocumentStartsEmpty(t *testing.T) {
	env := newFakeEnv()
	primary := env.file(filepath.Join("/ws", "data.json"))
	primary.mu.Lock()
	primary.data = []byte("{not json")
	primary.exists = true
	primary.mu.Unlock()

	store := newTestStore(t, env)
	bind(t, store, "/ws")

	stacks, err := store.Stacks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stacks)
}

func TestCloseClosesSubscribers(t *testing.T) {
	env := newFakeEnv()
	store := newTestStore(t, env)
	bind(t, store, "/ws")

	updates, cancel := store.Subscribe()
	defer cancel()

	require.NoError(t, store.Close())

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-updates:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	_, err := store.Stacks(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMarkersMatching(t *testing.T) {
	env := newFakeEnv()
	store := newTestStore(t, env)
	bind(t, store, "/ws")
	ctx := context.Background()

	_, err := store.AddMarkers(ctx, []MarkerInput{
		{File: "src/a.go", Code: "a"},
		{File: "src/deep/b.go", Code: "b"},
		{File: "docs/readme.md", Code: "c"},
	})
	require.NoError(t, err)

	got, err := store.MarkersMatching(ctx, "src/**/*.go")
	require.NoError(t, err)
	require.Len(t, got, 2)

	_, err = store.MarkersMatching(ctx, "[")
	assert.Error(t, err)
}
