package randomize

// Seed derivation combines the authenticated user's id with a content
// id so every student sees their own stable ordering. Question-level
// and module-level seeds use different tag schemes so the two purposes
// never collide on otherwise equal raw identifiers.

// QuestionSeed derives the seed used to shuffle content inside a
// single question (options, pairs, statements, blanks).
func QuestionSeed(userID, questionID string) uint32 {
	return HashString(userID + ":" + questionID)
}

// ModuleSeed derives the seed used to shuffle question order within a
// module.
func ModuleSeed(userID, moduleID string) uint32 {
	return HashString(userID + ":module:" + moduleID)
}
