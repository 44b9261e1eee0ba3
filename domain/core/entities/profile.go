package entities

import (
	"time"

	"venturelink/domain/core/valueobjects"
)

// TeamMember is a person listed on an entrepreneur's profile
type TeamMember struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Image string `json:"image,omitempty"`
}

// Profile holds the role-specific details of a user. Investors fill the investment
// fields, entrepreneurs the company fields.
type Profile struct {
	ID                  int64               `json:"id"`
	UserID              valueobjects.UserID `json:"userId"`
	Bio                 string              `json:"bio,omitempty"`
	Location            string              `json:"location,omitempty"`
	Website             string              `json:"website,omitempty"`
	LinkedIn            string              `json:"linkedin,omitempty"`
	Phone               string              `json:"phone,omitempty"`
	InvestmentInterests []string            `json:"investmentInterests,omitempty"`
	PortfolioCompanies  []string            `json:"portfolioCompanies,omitempty"`
	InvestmentRange     string              `json:"investmentRange,omitempty"`
	CompanyName         string              `json:"companyName,omitempty"`
	CompanyDescription  string              `json:"companyDescription,omitempty"`
	Industry            string              `json:"industry,omitempty"`
	FundingStage        string              `json:"fundingStage,omitempty"`
	FundingGoal         string              `json:"fundingGoal,omitempty"`
	PitchDeckURL        string              `json:"pitchDeckUrl,omitempty"`
	TeamMembers         []TeamMember        `json:"teamMembers,omitempty"`
	UpdatedAt           time.Time           `json:"updatedAt"`
}

// Clone returns a deep copy so callers never share slices with the store
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.InvestmentInterests = append([]string(nil), p.InvestmentInterests...)
	c.PortfolioCompanies = append([]string(nil), p.PortfolioCompanies...)
	c.TeamMembers = append([]TeamMember(nil), p.TeamMembers...)
	return &c
}
