package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"workspace-server/internal/database"
	"workspace-server/internal/models"

	"github.com/stretchr/testify/require"
)

const testOwner int64 = 1

func newTestService(t *testing.T, opts ...func(*Options)) (*Service, *memStore, *recordingNotifier) {
	t.Helper()
	st := newMemStore()
	notifier := &recordingNotifier{}
	o := Options{Notifier: notifier}
	for _, fn := range opts {
		fn(&o)
	}
	svc, err := NewService(st, o)
	require.NoError(t, err)
	return svc, st, notifier
}

func seedRoot(st *memStore, ownerID int64) string {
	id := fmt.Sprintf("root-%d", ownerID)
	st.put(models.Node{ID: id, OwnerID: ownerID, Name: "root", IsFolder: true, CanMoveIn: true})
	return id
}

func createFolder(t *testing.T, svc *Service, parentID, name string) string {
	t.Helper()
	item, err := svc.Create(context.Background(), testOwner, CreateParams{Name: name, IsFolder: true, ParentID: &parentID})
	require.NoError(t, err)
	return item.ID
}

func createFile(t *testing.T, svc *Service, parentID, name, content string) string {
	t.Helper()
	item, err := svc.Create(context.Background(), testOwner, CreateParams{Name: name, ParentID: &parentID, Content: []byte(content)})
	require.NoError(t, err)
	return item.ID
}

func sizeOf(t *testing.T, st *memStore, id string) int64 {
	t.Helper()
	n, ok := st.get(id)
	require.True(t, ok, "node %s missing", id)
	return n.Size
}

func requireKind(t *testing.T, err error, kind error) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, kind), "expected %v, got %v", kind, err)
}

// requireAggregates recomputes every size from the rows and compares it
// with the stored value.
func requireAggregates(t *testing.T, st *memStore) {
	t.Helper()
	nodes := st.snapshot()
	want := make(map[string]int64, len(nodes))
	for _, n := range nodes {
		if n.IsFolder {
			continue
		}
		require.Equal(t, int64(len(n.Content)), n.Size, "file %s size", n.Name)
		seen := map[string]bool{}
		for p := n.ParentID; p != nil; {
			require.False(t, seen[*p], "cycle through %s", *p)
			seen[*p] = true
			want[*p] += n.Size
			parent, ok := nodes[*p]
			require.True(t, ok, "dangling parent %s", *p)
			p = parent.ParentID
		}
	}
	for id, n := range nodes {
		if n.IsFolder {
			require.Equal(t, want[id], n.Size, "folder %s size", n.Name)
		}
	}
}

func TestScenarioCreateGrowsRoot(t *testing.T) {
	svc, st, _ := newTestService(t)
	root := seedRoot(st, testOwner)
	require.Equal(t, int64(0), sizeOf(t, st, root))

	createFile(t, svc, root, "a.txt", "0123456789")

	require.Equal(t, int64(10), sizeOf(t, st, root))
	requireAggregates(t, st)
}

func TestScenarioMoveIntoSiblingKeepsCommonAncestor(t *testing.T) {
	svc, st, _ := newTestService(t)
	root := seedRoot(st, testOwner)
	a := createFile(t, svc, root, "a.txt", "0123456789")
	s := createFolder(t, svc, root, "S")

	moved, err := svc.Move(context.Background(), testOwner, a, s)
	require.NoError(t, err)
	require.Equal(t, s, *moved.ParentID)

	require.Equal(t, int64(10), sizeOf(t, st, root))
	require.Equal(t, int64(10), sizeOf(t, st, s))
	requireAggregates(t, st)
}

func TestScenarioDeleteFolderWithContents(t *testing.T) {
	svc, st, _ := newTestService(t)
	root := seedRoot(st, testOwner)
	s := createFolder(t, svc, root, "S")
	a := createFile(t, svc, s, "a.txt", "0123456789")

	res, err := svc.Delete(context.Background(), testOwner, s)
	require.NoError(t, err)
	require.Equal(t, "Folder and its contents deleted", res.Message)
	require.Equal(t, 1, res.FilesDeleted)
	require.Equal(t, 1, res.DirsDeleted)

	require.Equal(t, int64(0), sizeOf(t, st, root))
	_, ok := st.get(s)
	require.False(t, ok)
	_, ok = st.get(a)
	require.False(t, ok)
}

func TestScenarioMoveIntoOwnDescendant(t *testing.T) {
	svc, st, _ := newTestService(t)
	root := seedRoot(st, testOwner)
	p := createFolder(t, svc, root, "P")
	q := createFolder(t, svc, p, "Q")
	deep := createFolder(t, svc, q, "deep")
	createFile(t, svc, deep, "f.txt", "xyz")

	before := st.snapshot()
	for _, dest := range []string{q, deep} {
		_, err := svc.Move(context.Background(), testOwner, p, dest)
		requireKind(t, err, ErrInvalidInput)
	}
	_, err := svc.Move(context.Background(), testOwner, p, p)
	requireKind(t, err, ErrInvalidInput)

	require.Equal(t, before, st.snapshot())
}

func TestScenarioUploadCreatesImpliedFolders(t *testing.T) {
	svc, st, _ := newTestService(t)
	root := seedRoot(st, testOwner)
	target := createFolder(t, svc, root, "target")

	res, err := svc.Upload(context.Background(), testOwner, &target, []UploadEntry{
		{Path: "docs/x.py", Content: []byte("print(1)")},
		{Path: "docs/sub/y.py", Content: []byte("print(22)")},
	})
	require.NoError(t, err)
	require.Len(t, res.Created, 2)
	require.Empty(t, res.Skipped)
	require.Empty(t, res.Invalid)

	docs, err := svc.Lookup(context.Background(), testOwner, LookupCriteria{Name: "docs"})
	require.NoError(t, err)
	sub, err := svc.Lookup(context.Background(), testOwner, LookupCriteria{Name: "sub"})
	require.NoError(t, err)

	total := int64(len("print(1)") + len("print(22)"))
	require.Equal(t, total, sizeOf(t, st, docs))
	require.Equal(t, int64(len("print(22)")), sizeOf(t, st, sub))
	require.Equal(t, total, sizeOf(t, st, target))
	require.Equal(t, total, sizeOf(t, st, root))
	requireAggregates(t, st)
}

func TestScenarioRenameConflict(t *testing.T) {
	svc, st, _ := newTestService(t)
	root := seedRoot(st, testOwner)
	a := createFile(t, svc, root, "a.txt", "a")
	createFile(t, svc, root, "b.txt", "b")

	before := st.snapshot()
	_, err := svc.Rename(context.Background(), testOwner, a, "b.txt")
	requireKind(t, err, ErrConflict)
	require.Equal(t, before, st.snapshot())
}

func TestMoveBetweenCousinsSharingGrandparent(t *testing.T) {
	svc, st, _ := newTestService(t)
	root := seedRoot(st, testOwner)
	g := createFolder(t, svc, root, "G")
	p1 := createFolder(t, svc, g, "P1")
	p2 := createFolder(t, svc, g, "P2")
	c1 := createFolder(t, svc, p1, "C1")
	c2 := createFolder(t, svc, p2, "C2")
	f := createFile(t, svc, c1, "f.bin", "12345")
	createFile(t, svc, c2, "other.bin", "12")

	_, err := svc.Move(context.Background(), testOwner, f, c2)
	require.NoError(t, err)

	require.Equal(t, int64(0), sizeOf(t, st, c1))
	require.Equal(t, int64(0), sizeOf(t, st, p1))
	require.Equal(t, int64(7), sizeOf(t, st, c2))
	require.Equal(t, int64(7), sizeOf(t, st, p2))
	require.Equal(t, int64(7), sizeOf(t, st, g))
	require.Equal(t, int64(7), sizeOf(t, st, root))
	requireAggregates(t, st)
}

func TestMoveFolderUpAndDown(t *testing.T) {
	svc, st, _ := newTestService(t)
	root := seedRoot(st, testOwner)
	a := createFolder(t, svc, root, "a")
	b := createFolder(t, svc, a, "b")
	c := createFolder(t, svc, b, "c")
	createFile(t, svc, c, "x", "0123")

	_, err := svc.Move(context.Background(), testOwner, c, root)
	require.NoError(t, err)
	require.Equal(t, int64(0), sizeOf(t, st, a))
	require.Equal(t, int64(4), sizeOf(t, st, root))
	requireAggregates(t, st)

	_, err = svc.Move(context.Background(), testOwner, a, c)
	require.NoError(t, err)
	require.Equal(t, int64(4), sizeOf(t, st, c))
	requireAggregates(t, st)

	// Moving to the current parent changes nothing.
	_, err = svc.Move(context.Background(), testOwner, a, c)
	require.NoError(t, err)
	requireAggregates(t, st)
}

func TestMoveRejections(t *testing.T) {
	svc, st, _ := newTestService(t)
	root := seedRoot(st, testOwner)
	otherRoot := seedRoot(st, 2)
	folder := createFolder(t, svc, root, "folder")
	file := createFile(t, svc, root, "file.txt", "x")
	createFile(t, svc, folder, "file.txt", "y")
	locked, err := svc.Create(context.Background(), testOwner, CreateParams{Name: "locked", IsFolder: true, ParentID: &root, Locked: true})
	require.NoError(t, err)
	spare := createFile(t, svc, root, "spare.txt", "z")

	tests := []struct {
		name   string
		item   string
		dest   string
		expect error
	}{
		{"missing item", "missing", folder, ErrNotFound},
		{"locked item", locked.ID, folder, ErrForbidden},
		{"root", root, folder, ErrForbidden},
		{"no destination", spare, "", ErrInvalidInput},
		{"missing destination", spare, "missing", ErrNotFound},
		{"foreign destination", spare, otherRoot, ErrForbidden},
		{"file destination", spare, file, ErrInvalidInput},
		{"locked destination", spare, locked.ID, ErrForbidden},
		{"name taken", file, folder, ErrConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			before := st.snapshot()
			_, err := svc.Move(context.Background(), testOwner, tc.item, tc.dest)
			requireKind(t, err, tc.expect)
			require.Equal(t, before, st.snapshot())
		})
	}
}

func TestMoveRootWithMoveFlag(t *testing.T) {
	svc, st, _ := newTestService(t)
	st.put(models.Node{ID: "r", OwnerID: testOwner, Name: "r", IsFolder: true, CanMove: true, CanMoveIn: true})
	dest := createFolder(t, svc, "r", "d")

	_, err := svc.Move(context.Background(), testOwner, "r", dest)
	requireKind(t, err, ErrInvalidInput)
}

func TestCreateValidation(t *testing.T) {
	svc, st, _ := newTestService(t)
	root := seedRoot(st, testOwner)
	other := seedRoot(st, 2)
	file := createFile(t, svc, root, "f", "1")
	missing := "missing"

	tests := []struct {
		name   string
		params CreateParams
		expect error
	}{
		{"empty name", CreateParams{Name: "  ", ParentID: &root}, ErrInvalidInput},
		{"slash", CreateParams{Name: "a/b", ParentID: &root}, ErrInvalidInput},
		{"dot dot", CreateParams{Name: "..", ParentID: &root}, ErrInvalidInput},
		{"missing parent", CreateParams{Name: "x", ParentID: &missing}, ErrNotFound},
		{"foreign parent", CreateParams{Name: "x", ParentID: &other}, ErrForbidden},
		{"file parent", CreateParams{Name: "x", ParentID: &file}, ErrInvalidInput},
		{"duplicate", CreateParams{Name: "f", ParentID: &root, IsFolder: true}, ErrConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), testOwner, tc.params)
			requireKind(t, err, tc.expect)
		})
	}
}

func TestCreateDefaultsToRootAndLocks(t *testing.T) {
	svc, st, _ := newTestService(t)
	root := seedRoot(st, testOwner)

	item, err := svc.Create(context.Background(), testOwner, CreateParams{Name: "ex", IsFolder: true, Locked: true})
	require.NoError(t, err)
	require.Equal(t, root, *item.ParentID)

	n, ok := st.get(item.ID)
	require.True(t, ok)
	require.False(t, n.CanRename || n.CanDelete || n.CanMove || n.CanMoveIn)
	require.Len(t, n.ID, nodeIDLength)

	empty, err := svc.Create(context.Background(), testOwner, CreateParams{Name: "empty.txt"})
	require.NoError(t, err)
	n, _ = st.get(empty.ID)
	require.NotNil(t, n.Content)
	require.Zero(t, n.Size)
}

func TestCreateWithoutRoot(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Create(context.Background(), testOwner, CreateParams{Name: "x"})
	requireKind(t, err, ErrNotFound)
}

func TestDeleteRules(t *testing.T) {
	svc, st, _ := newTestService(t)
	root := seedRoot(st, testOwner)
	otherRoot := seedRoot(st, 2)
	st.put(models.Node{ID: "foreign", OwnerID: 2, ParentID: &otherRoot, Name: "f", Content: []byte{}, CanDelete: true})
	locked, err := svc.Create(context.Background(), testOwner, CreateParams{Name: "locked", ParentID: &root, Locked: true})
	require.NoError(t, err)

	_, err = svc.Delete(context.Background(), testOwner, "missing")
	requireKind(t, err, ErrNotFound)
	_, err = svc.Delete(context.Background(), testOwner, "foreign")
	requireKind(t, err, ErrForbidden)
	_, err = svc.Delete(context.Background(), testOwner, root)
	requireKind(t, err, ErrInvalidInput)
	_, err = svc.Delete(context.Background(), testOwner, locked.ID)
	requireKind(t, err, ErrForbidden)
}

func TestDeleteLargeSubtreeInBatches(t *testing.T) {
	svc, st, _ := newTestService(t, func(o *Options) { o.SubtreeBatchSize = 2 })
	root := seedRoot(st, testOwner)
	keep := createFile(t, svc, root, "keep.txt", "keep")
	top := createFolder(t, svc, root, "top")

	var files int
	parents := []string{top}
	for depth := 0; depth < 3; depth++ {
		var next []string
		for _, p := range parents {
			for i := 0; i < 3; i++ {
				next = append(next, createFolder(t, svc, p, fmt.Sprintf("d%d", i)))
				createFile(t, svc, p, fmt.Sprintf("f%d.txt", i), "abc")
				files++
			}
		}
		parents = next
	}
	require.Equal(t, int64(4+3*files), sizeOf(t, st, root))

	res, err := svc.Delete(context.Background(), testOwner, top)
	require.NoError(t, err)
	require.Equal(t, files, res.FilesDeleted)
	require.Equal(t, 1+3+9+27, res.DirsDeleted)

	require.Equal(t, int64(4), sizeOf(t, st, root))
	require.Len(t, st.snapshot(), 2)
	_, ok := st.get(keep)
	require.True(t, ok)
	requireAggregates(t, st)
}

func TestDeleteFile(t *testing.T) {
	svc, st, _ := newTestService(t)
	root := seedRoot(st, testOwner)
	dir := createFolder(t, svc, root, "dir")
	f := createFile(t, svc, dir, "f.txt", "hello")

	res, err := svc.Delete(context.Background(), testOwner, f)
	require.NoError(t, err)
	require.Equal(t, "File deleted", res.Message)
	require.Equal(t, int64(0), sizeOf(t, st, dir))
	require.Equal(t, int64(0), sizeOf(t, st, root))
}

func TestRename(t *testing.T) {
	svc, st, _ := newTestService(t)
	root := seedRoot(st, testOwner)
	f := createFile(t, svc, root, "a.txt", "abc")

	item, err := svc.Rename(context.Background(), testOwner, f, "b.txt")
	require.NoError(t, err)
	require.Equal(t, "b.txt", item.Name)
	n, _ := st.get(f)
	require.Equal(t, "b.txt", n.Name)
	require.Equal(t, int64(3), n.Size)

	// Renaming to its own name is not a conflict.
	_, err = svc.Rename(context.Background(), testOwner, f, "b.txt")
	require.NoError(t, err)

	_, err = svc.Rename(context.Background(), testOwner, f, "")
	requireKind(t, err, ErrInvalidInput)
	_, err = svc.Rename(context.Background(), testOwner, root, "home")
	requireKind(t, err, ErrForbidden)
	_, err = svc.Rename(context.Background(), 2, f, "c.txt")
	requireKind(t, err, ErrForbidden)
	_, err = svc.Rename(context.Background(), testOwner, "missing", "c.txt")
	requireKind(t, err, ErrNotFound)
	_, err = svc.Rename(context.Background(), testOwner, "missing", "")
	requireKind(t, err, ErrNotFound)
	_, err = svc.Rename(context.Background(), 2, f, "")
	requireKind(t, err, ErrForbidden)
}

func TestUpdateContent(t *testing.T) {
	svc, st, _ := newTestService(t)
	root := seedRoot(st, testOwner)
	dir := createFolder(t, svc, root, "dir")
	f := createFile(t, svc, dir, "f.txt", "12345")

	_, err := svc.UpdateContent(context.Background(), testOwner, f, []byte("12345678"))
	require.NoError(t, err)
	require.Equal(t, int64(8), sizeOf(t, st, dir))
	require.Equal(t, int64(8), sizeOf(t, st, root))

	_, err = svc.UpdateContent(context.Background(), testOwner, f, nil)
	require.NoError(t, err)
	require.Equal(t, int64(0), sizeOf(t, st, root))
	requireAggregates(t, st)

	_, err = svc.UpdateContent(context.Background(), testOwner, dir, []byte("x"))
	requireKind(t, err, ErrInvalidInput)
	_, err = svc.UpdateContent(context.Background(), 2, f, []byte("x"))
	requireKind(t, err, ErrForbidden)
	_, err = svc.UpdateContent(context.Background(), testOwner, "missing", []byte("x"))
	requireKind(t, err, ErrNotFound)
}

func TestFailedCommitLeavesNoTrace(t *testing.T) {
	svc, st, notifier := newTestService(t)
	root := seedRoot(st, testOwner)
	createFile(t, svc, root, "a", "abc")
	published := len(notifier.events)

	before := st.snapshot()
	st.failNext = errInjected
	_, err := svc.Create(context.Background(), testOwner, CreateParams{Name: "b", ParentID: &root, Content: []byte("xyz")})
	requireKind(t, err, ErrInternal)
	require.ErrorIs(t, err, errInjected)
	require.Equal(t, before, st.snapshot())
	require.Len(t, notifier.events, published)
}

func TestStoreConflictSurfacesAsConflict(t *testing.T) {
	svc, st, _ := newTestService(t)
	root := seedRoot(st, testOwner)

	st.failNext = fmt.Errorf("insert: %w", database.ErrDuplicateNodeName)
	_, err := svc.Create(context.Background(), testOwner, CreateParams{Name: "b", ParentID: &root})
	requireKind(t, err, ErrConflict)
}

func TestAncestorWalkErrors(t *testing.T) {
	svc, st, _ := newTestService(t)
	a, b, ghost := "a", "b", "ghost"
	st.put(models.Node{ID: a, OwnerID: testOwner, ParentID: &b, Name: "a", IsFolder: true, CanMoveIn: true})
	st.put(models.Node{ID: b, OwnerID: testOwner, ParentID: &a, Name: "b", IsFolder: true, CanMoveIn: true})
	st.put(models.Node{ID: "orphan", OwnerID: testOwner, ParentID: &ghost, Name: "o", IsFolder: true, CanMoveIn: true})

	_, err := svc.Create(context.Background(), testOwner, CreateParams{Name: "f", ParentID: &a, Content: []byte("x")})
	requireKind(t, err, ErrInternal)

	orphan := "orphan"
	_, err = svc.Create(context.Background(), testOwner, CreateParams{Name: "f", ParentID: &orphan, Content: []byte("x")})
	requireKind(t, err, ErrNotFound)
}

func TestNotifierReceivesCommittedEvents(t *testing.T) {
	svc, st, notifier := newTestService(t)
	root := seedRoot(st, testOwner)
	f := createFile(t, svc, root, "a", "abc")
	_, err := svc.Rename(context.Background(), testOwner, f, "b")
	require.NoError(t, err)

	require.Equal(t, []int64{testOwner, testOwner}, notifier.owners)
	require.Len(t, st.events, 2)

	var ev database.Event
	require.NoError(t, json.Unmarshal(notifier.events[1], &ev))
	require.Equal(t, EventNodeRenamed, ev.EventType)

	var body struct {
		EventType string      `json:"event_type"`
		Payload   NodeSummary `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(ev.Payload, &body))
	require.Equal(t, "b", body.Payload.Name)
	require.Equal(t, f, body.Payload.ID)
}

func TestLookup(t *testing.T) {
	svc, st, _ := newTestService(t)
	root := seedRoot(st, testOwner)
	createFolder(t, svc, root, "dup")
	other := createFolder(t, svc, root, "other")
	createFolder(t, svc, other, "dup")
	f := createFile(t, svc, root, "only.txt", "1")

	id, err := svc.Lookup(context.Background(), testOwner, LookupCriteria{Name: "only.txt"})
	require.NoError(t, err)
	require.Equal(t, f, id)

	yes := true
	_, err = svc.Lookup(context.Background(), testOwner, LookupCriteria{Name: "dup", IsFolder: &yes})
	requireKind(t, err, ErrConflict)
	_, err = svc.Lookup(context.Background(), testOwner, LookupCriteria{Name: "nothing"})
	requireKind(t, err, ErrNotFound)
	_, err = svc.Lookup(context.Background(), testOwner, LookupCriteria{})
	requireKind(t, err, ErrInvalidInput)
}

func TestBootstrap(t *testing.T) {
	svc, st, _ := newTestService(t)

	root, err := svc.Bootstrap(context.Background(), testOwner, "alice")
	require.NoError(t, err)

	r, ok := st.get(root.ID)
	require.True(t, ok)
	require.Nil(t, r.ParentID)
	require.False(t, r.CanRename || r.CanDelete || r.CanMove)
	require.True(t, r.CanMoveIn)
	require.Equal(t, int64(len(welcomeContent)), r.Size)

	tree, err := svc.Tree(context.Background(), testOwner, nil)
	require.NoError(t, err)
	require.Len(t, tree.Children, 2)
	require.Equal(t, exercisesFolderName, tree.Children[0].Name)
	require.False(t, tree.Children[0].CanMoveIn)
	require.Equal(t, welcomeFileName, tree.Children[1].Name)
	require.Equal(t, "print('Hello world !')", string(tree.Children[1].Content))
	requireAggregates(t, st)

	_, err = svc.Bootstrap(context.Background(), testOwner, "alice")
	requireKind(t, err, ErrConflict)
}
