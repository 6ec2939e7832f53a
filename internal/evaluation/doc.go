// Package evaluation scores generated legal answers against a gold set.
//
// Citation grammars are data: an ordered list of named patterns applied
// case-insensitively. Response intent is classified by keyword, with refusal
// taking precedence over clarification. Citation accuracy is strict binary
// containment after normalisation, never graded similarity.
package evaluation
