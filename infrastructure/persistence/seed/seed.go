// Package seed loads the demo accounts, profiles and the opening
// collaboration request into an empty store.
package seed

import (
	"context"
	"fmt"
	"time"

	"venturelink/application/ports"
	"venturelink/domain/core/entities"
	"venturelink/domain/core/valueobjects"
	pkgerrors "venturelink/pkg/errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the password of every seeded account
const DefaultPassword = "password123"

// Repositories are the stores the seed writes to
type Repositories struct {
	Users    ports.UserRepository
	Profiles ports.ProfileRepository
	Requests ports.CollaborationRequestRepository
}

type account struct {
	email     string
	firstName string
	lastName  string
	role      valueobjects.Role
	image     string
	profile   entities.Profile
}

func unsplash(photo string, size int) string {
	return fmt.Sprintf("https://images.unsplash.com/%s?ixlib=rb-4.0.3&auto=format&fit=crop&w=%d&h=%d", photo, size, size)
}

var accounts = []account{
	{
		email:     "alex.thompson@vcpartners.com",
		firstName: "Alex",
		lastName:  "Thompson",
		role:      valueobjects.RoleInvestor,
		image:     unsplash("photo-1507003211169-0a1dd7228f2d", 150),
		profile: entities.Profile{
			Bio:                 "Experienced venture capitalist with 15+ years in tech investments. Focus on early-stage startups in AI, sustainability, and healthcare.",
			Location:            "San Francisco, CA",
			LinkedIn:            "linkedin.com/in/alexthompson",
			InvestmentInterests: []string{"AI/ML", "Sustainability", "Healthcare", "FinTech"},
			PortfolioCompanies:  []string{"TechCorp", "GreenEnergy Inc", "HealthTech Solutions"},
			InvestmentRange:     "$500K - $5M",
		},
	},
	{
		email:     "sarah.chen@greentech.com",
		firstName: "Sarah",
		lastName:  "Chen",
		role:      valueobjects.RoleEntrepreneur,
		image:     unsplash("photo-1494790108755-2616b612b786", 150),
		profile: entities.Profile{
			Bio:                "Passionate entrepreneur with 8+ years in sustainable technology. Leading GreenTech Solutions to revolutionize urban energy consumption.",
			Location:           "San Francisco, CA",
			LinkedIn:           "linkedin.com/in/sarahchen",
			Phone:              "+1 (555) 123-4567",
			CompanyName:        "GreenTech Solutions",
			CompanyDescription: "Revolutionary sustainable energy solutions for urban environments, focusing on next-generation solar panel technology and smart energy management systems.",
			Industry:           "Clean Energy",
			FundingStage:       "Series A",
			FundingGoal:        "$2M",
			TeamMembers: []entities.TeamMember{
				{Name: "Mike Johnson", Role: "CTO", Image: unsplash("photo-1472099645785-5658abf4ff4e", 100)},
				{Name: "Lisa Wang", Role: "VP Operations", Image: unsplash("photo-1580489944761-15a19d654956", 100)},
			},
		},
	},
	{
		email:     "marcus.rodriguez@healthai.com",
		firstName: "Marcus",
		lastName:  "Rodriguez",
		role:      valueobjects.RoleEntrepreneur,
		image:     unsplash("photo-1472099645785-5658abf4ff4e", 150),
		profile: entities.Profile{
			Bio:                "AI researcher turned entrepreneur, building the future of healthcare diagnostics with cutting-edge machine learning technology.",
			Location:           "Boston, MA",
			LinkedIn:           "linkedin.com/in/marcusrodriguez",
			CompanyName:        "HealthAI",
			CompanyDescription: "AI-powered diagnostic platform revolutionizing early disease detection through advanced machine learning algorithms.",
			Industry:           "Healthcare",
			FundingStage:       "Pre-Series A",
			FundingGoal:        "$1.5M",
		},
	},
	{
		email:     "priya.patel@educonnect.com",
		firstName: "Priya",
		lastName:  "Patel",
		role:      valueobjects.RoleEntrepreneur,
		image:     unsplash("photo-1580489944761-15a19d654956", 150),
		profile: entities.Profile{
			Bio:                "EdTech innovator creating immersive learning experiences through virtual reality technology.",
			Location:           "Austin, TX",
			LinkedIn:           "linkedin.com/in/priyapatel",
			CompanyName:        "EduConnect",
			CompanyDescription: "Connecting students globally through virtual reality learning experiences and interactive educational content.",
			Industry:           "EdTech",
			FundingStage:       "Seed",
			FundingGoal:        "$800K",
		},
	},
}

const openingRequest = "I'm impressed by GreenTech's sustainable approach and would like to discuss potential Series A investment opportunities."

// Run seeds the store. A store that already holds the first account is left
// alone, so running it twice is harmless.
func Run(ctx context.Context, repos Repositories, logger *zap.Logger) error {
	if _, err := repos.Users.GetByEmail(ctx, accounts[0].email); err == nil {
		logger.Info("Seed data already present, skipping")
		return nil
	} else if !pkgerrors.IsNotFound(err) {
		return fmt.Errorf("failed to check for seed data: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}

	now := time.Now().UTC()
	ids := make([]valueobjects.UserID, 0, len(accounts))

	for _, a := range accounts {
		user, err := entities.NewUser(a.email, string(hash), a.firstName, a.lastName, a.role, a.image, now)
		if err != nil {
			return fmt.Errorf("invalid seed user %s: %w", a.email, err)
		}
		created, err := repos.Users.Create(ctx, user)
		if err != nil {
			return fmt.Errorf("failed to seed user %s: %w", a.email, err)
		}

		profile := a.profile.Clone()
		profile.UserID = created.ID
		if _, err := repos.Profiles.Create(ctx, profile); err != nil {
			return fmt.Errorf("failed to seed profile for %s: %w", a.email, err)
		}
		ids = append(ids, created.ID)
	}

	req, err := entities.NewCollaborationRequest(ids[0], ids[1], openingRequest, now)
	if err != nil {
		return fmt.Errorf("invalid seed request: %w", err)
	}
	if _, err := repos.Requests.Create(ctx, req); err != nil {
		return fmt.Errorf("failed to seed collaboration request: %w", err)
	}

	logger.Info("Seed data loaded", zap.Int("users", len(ids)))
	return nil
}
