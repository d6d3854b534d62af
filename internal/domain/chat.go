package domain

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation. Turns are never modified after
// they are stored.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

type ChatMode string

const (
	ModeAssistant ChatMode = "assistant"
	ModeTourist   ChatMode = "tourist"
	ModeLearning  ChatMode = "learning"
)

func (m ChatMode) Valid() bool {
	switch m {
	case ModeAssistant, ModeTourist, ModeLearning:
		return true
	}
	return false
}

type Lang string

const (
	LangEnglish Lang = "en"
	LangRussian Lang = "ru"
	LangKazakh  Lang = "kk"
)

func (l Lang) Valid() bool {
	switch l {
	case LangEnglish, LangRussian, LangKazakh:
		return true
	}
	return false
}

// Name returns the English name of the language, or the code itself for
// languages the service does not know.
func (l Lang) Name() string {
	switch l {
	case LangEnglish:
		return "English"
	case LangRussian:
		return "Russian"
	case LangKazakh:
		return "Kazakh"
	}
	return string(l)
}
