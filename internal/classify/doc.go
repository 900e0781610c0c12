// Package classify assigns each normalized event one of the catalog's fixed
// categories.
//
// Rules is the deterministic keyword classifier with no external
// dependencies. LLM asks a chat model through internal/services/llm. Chain
// runs a primary classifier and falls back to rules whenever the primary is
// unconfigured, fails, or answers with a category outside the fixed set.
package classify
