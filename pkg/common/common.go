package common

import "time"

// Token is a single annotated token within a sentence. Head is the index of
// the syntactic head token within the same sentence; the root token points
// at itself (or carries the root dependency label).
type Token struct {
	Text  string `json:"text"`
	Lemma string `json:"lemma"`
	POS   string `json:"pos"`
	Dep   string `json:"dep"`
	Head  int    `json:"head"`
}

// EntitySpan is a mention of an entity inside one sentence. Start and End are
// token indices (End exclusive); CharStart and CharEnd are character offsets
// into the sentence text.
type EntitySpan struct {
	Text      string `json:"text"`
	Label     string `json:"label"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
	CharStart int    `json:"char_start"`
	CharEnd   int    `json:"char_end"`
}

// Sentence is one annotated sentence: its tokens plus the entity spans the
// annotator found in it.
type Sentence struct {
	Index    int          `json:"index"`
	Text     string       `json:"text"`
	Tokens   []Token      `json:"tokens"`
	Entities []EntitySpan `json:"entities"`
}

// CorefMention locates a single coreference mention by sentence and token
// span.
type CorefMention struct {
	Sentence int    `json:"sentence"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Text     string `json:"text"`
}

// CorefCluster groups mentions that refer to the same real-world entity. The
// first mention is the canonical one.
type CorefCluster struct {
	Mentions []CorefMention `json:"mentions"`
}

// AnnotatedDocument is the full output of the linguistic annotator for one
// input text.
type AnnotatedDocument struct {
	Sentences []Sentence     `json:"sentences"`
	Coref     []CorefCluster `json:"coref,omitempty"`
}

// Triple is a transient extraction result. It is never persisted directly;
// ingestion translates it into a node pair plus an edge.
type Triple struct {
	Subject    string            `json:"subject"`
	Relation   string            `json:"relation"`
	Object     string            `json:"object"`
	Type       string            `json:"type"`
	Confidence float64           `json:"confidence"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Sentence   int               `json:"sentence"`
}

// Node is a persisted entity. Identity within one owner is the pair of
// normalized entity text and type.
type Node struct {
	ID         string            `json:"node_id"`
	EntityText string            `json:"entity_text"`
	Type       string            `json:"type"`
	Label      string            `json:"label"`
	DocumentID string            `json:"source_document_id"`
	Properties map[string]string `json:"properties,omitempty"`
	Owner      string            `json:"owner"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Edge is a persisted directed relationship between two nodes. Identity
// within one owner is (source, target, relation type).
type Edge struct {
	ID           string            `json:"edge_id"`
	SourceNodeID string            `json:"source_node_id"`
	TargetNodeID string            `json:"target_node_id"`
	RelationType string            `json:"relation_type"`
	Confidence   float64           `json:"confidence"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	SentenceID   string            `json:"source_sentence_id,omitempty"`
	DocumentID   string            `json:"source_document_id"`
	Weight       float64           `json:"weight"`
	Owner        string            `json:"owner"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// GraphView is the external node/edge projection handed to consumers such as
// a retrieval-context API. It is a read-only snapshot, never a live handle
// into the store.
type GraphView struct {
	Nodes []ViewNode `json:"nodes"`
	Edges []ViewEdge `json:"edges"`
}

// ViewNode is a node as exposed in a GraphView.
type ViewNode struct {
	ID         string            `json:"id"`
	Label      string            `json:"label"`
	Properties map[string]string `json:"properties,omitempty"`
}

// ViewEdge is an edge as exposed in a GraphView.
type ViewEdge struct {
	ID         string            `json:"id"`
	Source     string            `json:"source"`
	Target     string            `json:"target"`
	Label      string            `json:"label"`
	Properties map[string]string `json:"properties,omitempty"`
}
