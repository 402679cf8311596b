package domain

import "strings"

// Kind 资源类型（固定三种）
type Kind int

const (
	Account Kind = iota + 1
	Prompt
	Poem
)

func Kinds() []Kind { return []Kind{Account, Prompt, Poem} }

func (k Kind) String() string {
	switch k {
	case Account:
		return "account"
	case Prompt:
		return "prompt"
	case Poem:
		return "poem"
	}
	return "unknown"
}

// Plural 路由和 list 入口用的复数形式
func (k Kind) Plural() string {
	if k < Account || k > Poem {
		return "unknown"
	}
	return k.String() + "s"
}

// Title 首字母大写，拼入口名用：getPrompt
func (k Kind) Title() string {
	s := k.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseKind 单复数都认
func ParseKind(s string) (Kind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds() {
		if s == k.String() || s == k.Plural() {
			return k, true
		}
	}
	return 0, false
}
