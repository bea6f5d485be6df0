package domain

// RetrievedChunk is one reference passage from the knowledge index, ordered
// by descending relevance.
type RetrievedChunk struct {
	ChunkID       string  `json:"chunk_id"`
	Text          string  `json:"text"`
	Score         float64 `json:"score"`
	OriginDocType DocType `json:"origin_doc_type,omitempty"`
	Topic         string  `json:"topic,omitempty"`
	Source        string  `json:"source,omitempty"`
}

// ChunkFilter narrows a vector search to passages written for one doc type.
type ChunkFilter struct {
	DocType DocType
}

// KnowledgePassage is one indexed chunk of the reference knowledge base.
type KnowledgePassage struct {
	DocType    DocType `json:"doc_type"`
	Topic      string  `json:"topic"`
	Source     string  `json:"source"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
}
