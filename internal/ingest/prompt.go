package ingest

import "strings"

// BuildPrompt instructs the extraction model to emit only a JSON array of
// question/answer objects for the given transcript.
func BuildPrompt(transcript string) string {
	var b strings.Builder
	b.WriteString("Convert the following transcript into question/answer pairs.\n")
	b.WriteString("Return ONLY a JSON array of objects of the form {\"q\": \"...\", \"a\": \"...\"}.\n")
	b.WriteString("Do not wrap the array in markdown code fences or add any text before or after it.\n")
	b.WriteString("If the transcript contains no usable question/answer content, return [].\n\n")
	b.WriteString("Transcript:\n")
	b.WriteString(transcript)
	return b.String()
}
