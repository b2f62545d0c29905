package domain

// KeyPrefix namespaces every key the store writes.
// Key patterns: ragstore:collection:{name}, ragstore:{name}:{id}, ragstore:{name}:idx.
const KeyPrefix = "ragstore:"
