package util

func IsNumber(b byte) bool {
	return b >= '0' && b <= '9'
}

func IsUnderScore(b byte) bool {
	return b == '_'
}

func IsLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func IsLetterOrUnderscore(b byte) bool {
	return IsLetter(b) || IsUnderScore(b)
}

func IsLetterOrUnderscoreOrNumber(b byte) bool {
	return IsLetter(b) || IsUnderScore(b) || IsNumber(b)
}

// IsIndent reports whether b counts as one column of leading indentation.
func IsIndent(b byte) bool {
	return b == ' ' || b == '\t'
}

// IsBlank reports whether line holds nothing but whitespace or a comment.
func IsBlank(line []byte) bool {
	for _, b := range line {
		switch {
		case IsIndent(b), b == '\r':
			continue
		case b == '#':
			return true
		default:
			return false
		}
	}
	return true
}
