package db

// Word is one lexical entry of the word table.
type Word struct {
	ID        int64
	Language  string
	Lemma     string
	Phonetic  string
	Frequency float64
}
