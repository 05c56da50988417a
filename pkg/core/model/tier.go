package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Tier is a membership type as numbered in the members table
type Tier int

const (
	TierGoldShareholder Tier = iota + 1
	TierGoldAssociate
	TierSilverShareholderSpouse
	TierSilverAssociateSpouse
	TierBronzePeeWee
	TierBronzeJunior
	TierBronzeIntermediate
	TierCopperSocial
)

// TierClass groups tiers that share booking windows
type TierClass string

const (
	TierClassGold   TierClass = "Gold"
	TierClassSilver TierClass = "Silver"
	TierClassBronze TierClass = "Bronze"
	TierClassSocial TierClass = "Social"
)

var tierNames = map[Tier]string{
	TierGoldShareholder:         "Gold Shareholder",
	TierGoldAssociate:           "Gold Associate",
	TierSilverShareholderSpouse: "Silver Shareholder Spouse",
	TierSilverAssociateSpouse:   "Silver Associate Spouse",
	TierBronzePeeWee:            "Bronze Pee Wee",
	TierBronzeJunior:            "Bronze Junior",
	TierBronzeIntermediate:      "Bronze Intermediate",
	TierCopperSocial:            "Copper Social",
}

func (t Tier) IsValid() bool {
	_, ok := tierNames[t]
	return ok
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// Class returns the booking class of the tier. Unknown tiers are treated as Social.
func (t Tier) Class() TierClass {
	switch t {
	case TierGoldShareholder, TierGoldAssociate:
		return TierClassGold
	case TierSilverShareholderSpouse, TierSilverAssociateSpouse:
		return TierClassSilver
	case TierBronzePeeWee, TierBronzeJunior, TierBronzeIntermediate:
		return TierClassBronze
	default:
		return TierClassSocial
	}
}

// IsShareholder reports whether the tier may hold standing tee times
func (t Tier) IsShareholder() bool {
	return t == TierGoldShareholder
}

// ParseTier accepts either the numeric id or the display name (case-insensitive)
func ParseTier(s string) (Tier, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if t := Tier(n); t.IsValid() {
			return t, nil
		}
		return 0, fmt.Errorf("unknown membership tier %d", n)
	}
	for t, name := range tierNames {
		if strings.EqualFold(name, s) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown membership tier %q", s)
}
