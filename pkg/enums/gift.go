package enums

// CodeKind distinguishes trial grants from full premium keys.
type CodeKind string

const (
	CodeKindTrial   CodeKind = "trial"
	CodeKindPremium CodeKind = "premium"
)

func (k CodeKind) IsValid() bool {
	return k == CodeKindTrial || k == CodeKindPremium
}

// GiftScope says whether a listed code belongs to one user or to everyone.
type GiftScope string

const (
	GiftScopePersonal GiftScope = "personal"
	GiftScopeGlobal   GiftScope = "global"
)

func (s GiftScope) IsValid() bool {
	return s == GiftScopePersonal || s == GiftScopeGlobal
}
