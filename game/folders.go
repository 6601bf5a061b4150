package game

import (
	"fmt"
	"math/rand"
)

// Folder is desktop decoration; it never interacts with gameplay.
type Folder struct {
	ID    string
	Title string
	X     float64
	Y     float64
}

var folderNames = []string{
	"Documents", "Pictures", "Music", "Videos", "Downloads", "Projects",
	"Work", "Personal", "Archive", "Backup", "Games", "Apps",
}

// FolderGenerator keeps at most max folders, evicting the oldest.
type FolderGenerator struct {
	rng      *rand.Rand
	max      int
	viewport Viewport
	reserve  Margins
	folders  []Folder
	nextID   int
}

func NewFolderGenerator(max int, viewport Viewport, reserve Margins, rng *rand.Rand) *FolderGenerator {
	if max <= 0 {
		max = 10
	}
	return &FolderGenerator{rng: rng, max: max, viewport: viewport, reserve: reserve}
}

func (g *FolderGenerator) SetViewport(v Viewport) {
	g.viewport = v
}

// Generate places a folder at a random spot clear of the right and bottom edges.
func (g *FolderGenerator) Generate(title string) Folder {
	g.nextID++
	folder := Folder{
		ID:    fmt.Sprintf("folder-%d", g.nextID),
		Title: title,
		X:     g.coord(g.viewport.Width - g.reserve.Right),
		Y:     g.coord(g.viewport.Height - g.reserve.Bottom),
	}
	g.folders = append(g.folders, folder)
	if len(g.folders) > g.max {
		g.folders = append([]Folder(nil), g.folders[len(g.folders)-g.max:]...)
	}
	return folder
}

func (g *FolderGenerator) GenerateRandom(count int) []Folder {
	created := make([]Folder, 0, count)
	for i := 0; i < count; i++ {
		name := folderNames[g.rng.Intn(len(folderNames))]
		created = append(created, g.Generate(fmt.Sprintf("%s %d", name, i+1)))
	}
	return created
}

func (g *FolderGenerator) Folders() []Folder {
	return append([]Folder(nil), g.folders...)
}

func (g *FolderGenerator) Clear() {
	g.folders = nil
}

func (g *FolderGenerator) coord(limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return float64(g.rng.Intn(int(limit) + 1))
}
