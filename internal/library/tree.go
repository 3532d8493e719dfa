// ABOUTME: Navigable view model of the studio library tree
// ABOUTME: Tracks folder expansion and the selected row for the UI
package library

import (
	"sort"
	"strings"

	"github.com/theepicsaxguy/OpenVox/internal/studio"
)

// RowKind distinguishes folder rows from episode rows.
type RowKind int

const (
	RowFolder RowKind = iota
	RowEpisode
)

// Row is one visible line of the library pane.
type Row struct {
	Kind     RowKind
	Depth    int
	Name     string
	Folder   *studio.Folder
	Episode  *studio.Episode
	Expanded bool
}

// Tree is the navigable library state. It is not safe for concurrent use;
// the UI owns it on its own goroutine.
type Tree struct {
	source   *studio.LibraryTree
	expanded map[int64]bool
	rows     []Row
	selected int
}

// New builds a tree view over a library listing. Top-level folders start
// expanded so the first paint shows content.
func New(source *studio.LibraryTree) *Tree {
	t := &Tree{expanded: make(map[int64]bool)}
	if source != nil {
		for _, f := range source.Folders {
			t.expanded[f.ID] = true
		}
	}
	t.Replace(source)
	return t
}

// Replace swaps in a fresh library listing while keeping expansion state
// and, when possible, the selected row.
func (t *Tree) Replace(source *studio.LibraryTree) {
	var keepEpisode int64 = -1
	var keepFolder int64 = -1
	if row, ok := t.Selected(); ok {
		switch row.Kind {
		case RowEpisode:
			keepEpisode = row.Episode.ID
		case RowFolder:
			keepFolder = row.Folder.ID
		}
	}

	t.source = source
	t.flatten()

	if keepEpisode >= 0 && t.SelectEpisode(keepEpisode) {
		return
	}
	if keepFolder >= 0 {
		for i, row := range t.rows {
			if row.Kind == RowFolder && row.Folder.ID == keepFolder {
				t.selected = i
				return
			}
		}
	}
	if t.selected >= len(t.rows) {
		t.selected = 0
	}
}

// Rows returns the currently visible rows.
func (t *Tree) Rows() []Row { return t.rows }

// Len returns the number of visible rows.
func (t *Tree) Len() int { return len(t.rows) }

// SelectedIndex returns the index of the selected row.
func (t *Tree) SelectedIndex() int { return t.selected }

// Selected returns the selected row.
func (t *Tree) Selected() (Row, bool) {
	if t.selected < 0 || t.selected >= len(t.rows) {
		return Row{}, false
	}
	return t.rows[t.selected], true
}

// MoveUp moves the selection up one row.
func (t *Tree) MoveUp() {
	if t.selected > 0 {
		t.selected--
	}
}

// MoveDown moves the selection down one row.
func (t *Tree) MoveDown() {
	if t.selected < len(t.rows)-1 {
		t.selected++
	}
}

// Toggle expands or collapses the selected folder. Selecting an episode row
// is a no-op.
func (t *Tree) Toggle() {
	row, ok := t.Selected()
	if !ok || row.Kind != RowFolder {
		return
	}
	t.expanded[row.Folder.ID] = !t.expanded[row.Folder.ID]
	t.flatten()
	if t.selected >= len(t.rows) {
		t.selected = len(t.rows) - 1
	}
}

// SelectEpisode moves the selection to the given episode, expanding folders
// on the way. Reports whether the episode was found.
func (t *Tree) SelectEpisode(id int64) bool {
	path, found := t.pathToEpisode(id)
	if !found {
		return false
	}
	for _, folderID := range path {
		t.expanded[folderID] = true
	}
	t.flatten()
	for i, row := range t.rows {
		if row.Kind == RowEpisode && row.Episode.ID == id {
			t.selected = i
			return true
		}
	}
	return false
}

// Episodes returns every episode in the library in display order,
// regardless of expansion.
func (t *Tree) Episodes() []studio.Episode {
	var out []studio.Episode
	if t.source == nil {
		return out
	}
	var walk func(folders []*studio.Folder)
	walk = func(folders []*studio.Folder) {
		for _, f := range sortedFolders(folders) {
			out = append(out, sortedEpisodes(f.Episodes)...)
			walk(f.Folders)
		}
	}
	walk(t.source.Folders)
	out = append(out, sortedEpisodes(t.source.Episodes)...)
	return out
}

func (t *Tree) flatten() {
	t.rows = t.rows[:0]
	if t.source == nil {
		return
	}
	var walk func(folders []*studio.Folder, depth int)
	walk = func(folders []*studio.Folder, depth int) {
		for _, f := range sortedFolders(folders) {
			expanded := t.expanded[f.ID]
			t.rows = append(t.rows, Row{
				Kind:     RowFolder,
				Depth:    depth,
				Name:     f.Name,
				Folder:   f,
				Expanded: expanded,
			})
			if !expanded {
				continue
			}
			walk(f.Folders, depth+1)
			for _, ep := range sortedEpisodes(f.Episodes) {
				t.appendEpisode(ep, depth+1)
			}
		}
	}
	walk(t.source.Folders, 0)
	for _, ep := range sortedEpisodes(t.source.Episodes) {
		t.appendEpisode(ep, 0)
	}
}

func (t *Tree) appendEpisode(ep studio.Episode, depth int) {
	e := ep
	t.rows = append(t.rows, Row{
		Kind:    RowEpisode,
		Depth:   depth,
		Name:    e.Title,
		Episode: &e,
	})
}

func (t *Tree) pathToEpisode(id int64) ([]int64, bool) {
	if t.source == nil {
		return nil, false
	}
	var walk func(folders []*studio.Folder, path []int64) ([]int64, bool)
	walk = func(folders []*studio.Folder, path []int64) ([]int64, bool) {
		for _, f := range folders {
			next := append(append([]int64(nil), path...), f.ID)
			for _, ep := range f.Episodes {
				if ep.ID == id {
					return next, true
				}
			}
			if found, ok := walk(f.Folders, next); ok {
				return found, ok
			}
		}
		return nil, false
	}
	if path, ok := walk(t.source.Folders, nil); ok {
		return path, true
	}
	for _, ep := range t.source.Episodes {
		if ep.ID == id {
			return nil, true
		}
	}
	return nil, false
}

func sortedFolders(folders []*studio.Folder) []*studio.Folder {
	out := append([]*studio.Folder(nil), folders...)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

func sortedEpisodes(eps []studio.Episode) []studio.Episode {
	out := append([]studio.Episode(nil), eps...)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
	})
	return out
}
