package parser

// TokenKind classifies one logical line (or line fragment) of a request file.
type TokenKind int

const (
	TokenEndOfStream TokenKind = iota
	TokenLineBreak
	TokenComment
	TokenFileVariableDecl
	TokenRequestSeparator
	TokenMetadataDirective
	TokenMethod
	TokenURL
	TokenHeaderName
	TokenHeaderValue
	TokenBodyLine
	TokenFileBodyRef
	TokenFileBodyRefProcessed
)

func (k TokenKind) String() string {
	switch k {
	case TokenEndOfStream:
		return "EndOfStream"
	case TokenLineBreak:
		return "LineBreak"
	case TokenComment:
		return "Comment"
	case TokenFileVariableDecl:
		return "FileVariableDecl"
	case TokenRequestSeparator:
		return "RequestSeparator"
	case TokenMetadataDirective:
		return "MetadataDirective"
	case TokenMethod:
		return "Method"
	case TokenURL:
		return "Url"
	case TokenHeaderName:
		return "HeaderName"
	case TokenHeaderValue:
		return "HeaderValue"
	case TokenBodyLine:
		return "BodyLine"
	case TokenFileBodyRef:
		return "FileBodyRef"
	case TokenFileBodyRefProcessed:
		return "FileBodyRefProcessed"
	default:
		return "unknown"
	}
}

// Token is an immutable classified unit produced by the tokenizer.
// Line and Column are 1-based positions in the source text.
type Token struct {
	Kind   TokenKind
	Value  string
	Line   int
	Column int
}
