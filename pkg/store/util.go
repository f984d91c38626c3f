package store

import "strings"

// NormalizeEntityText produces the identity form of an entity's surface
// text: trimmed, whitespace-collapsed and lower-cased. Node uniqueness and
// re-extraction merging both key on this form.
func NormalizeEntityText(text string) string {
	fields := strings.Fields(text)
	return strings.ToLower(strings.Join(fields, " "))
}

// NodeKey builds the composite identity key for a node within one owner.
func NodeKey(entityText, typ string) string {
	return NormalizeEntityText(entityText) + "|" + strings.ToLower(typ)
}

// EdgeKey builds the composite identity key for an edge within one owner.
func EdgeKey(sourceID, targetID, relationType string) string {
	return sourceID + "|" + targetID + "|" + strings.ToLower(relationType)
}
