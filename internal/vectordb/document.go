package vectordb

import (
	"fmt"
	"strconv"

	"github.com/ziadkadry99/docqa/internal/splitter"
)

// Entry is one embedded chunk held by an Index.
type Entry struct {
	ID       string
	Content  string
	Source   string
	Position int
	Start    int
	End      int
}

// SearchResult pairs an entry with its cosine similarity to the query.
type SearchResult struct {
	Entry      Entry
	Similarity float32
}

// EntryID is the identifier of the chunk at position in source.
func EntryID(source string, position int) string {
	return fmt.Sprintf("%s#%d", source, position)
}

func entryFromChunk(c splitter.Chunk) Entry {
	return Entry{
		ID:       EntryID(c.Source, c.Position),
		Content:  c.Text,
		Source:   c.Source,
		Position: c.Position,
		Start:    c.Start,
		End:      c.End,
	}
}

// metadataToMap flattens entry fields into chromem's string metadata.
func metadataToMap(e Entry) map[string]string {
	return map[string]string{
		"source":   e.Source,
		"position": strconv.Itoa(e.Position),
		"start":    strconv.Itoa(e.Start),
		"end":      strconv.Itoa(e.End),
	}
}

func entryFromMap(id, content string, m map[string]string) Entry {
	position, _ := strconv.Atoi(m["position"])
	start, _ := strconv.Atoi(m["start"])
	end, _ := strconv.Atoi(m["end"])
	return Entry{
		ID:       id,
		Content:  content,
		Source:   m["source"],
		Position: position,
		Start:    start,
		End:      end,
	}
}
