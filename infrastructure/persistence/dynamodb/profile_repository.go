package dynamodb

import (
	"context"
	"fmt"
	"time"

	"venturelink/application/ports"
	"venturelink/domain/core/entities"
	"venturelink/domain/core/valueobjects"
	pkgerrors "venturelink/pkg/errors"
	"venturelink/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

// ProfileRepository implements ports.ProfileRepository on DynamoDB.
// A profile lives under its user's partition.
type ProfileRepository struct {
	client    Client
	tableName string
	ids       *idSequence
	metrics   *observability.Collector
	logger    *zap.Logger
	now       func() time.Time
}

var _ ports.ProfileRepository = (*ProfileRepository)(nil)

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(client Client, tableName string, metrics *observability.Collector, logger *zap.Logger) *ProfileRepository {
	return &ProfileRepository{
		client:    client,
		tableName: tableName,
		ids:       newIDSequence(client, tableName, "PROFILE"),
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

type teamMemberItem struct {
	Name  string `dynamodbav:"Name"`
	Role  string `dynamodbav:"Role"`
	Image string `dynamodbav:"Image,omitempty"`
}

type profileItem struct {
	PK                  string           `dynamodbav:"PK"`
	SK                  string           `dynamodbav:"SK"`
	EntityType          string           `dynamodbav:"EntityType"`
	ProfileID           int64            `dynamodbav:"ProfileID"`
	UserID              int64            `dynamodbav:"UserID"`
	Bio                 string           `dynamodbav:"Bio,omitempty"`
	Location            string           `dynamodbav:"Location,omitempty"`
	Website             string           `dynamodbav:"Website,omitempty"`
	LinkedIn            string           `dynamodbav:"LinkedIn,omitempty"`
	Phone               string           `dynamodbav:"Phone,omitempty"`
	InvestmentInterests []string         `dynamodbav:"InvestmentInterests,omitempty"`
	PortfolioCompanies  []string         `dynamodbav:"PortfolioCompanies,omitempty"`
	InvestmentRange     string           `dynamodbav:"InvestmentRange,omitempty"`
	CompanyName         string           `dynamodbav:"CompanyName,omitempty"`
	CompanyDescription  string           `dynamodbav:"CompanyDescription,omitempty"`
	Industry            string           `dynamodbav:"Industry,omitempty"`
	FundingStage        string           `dynamodbav:"FundingStage,omitempty"`
	FundingGoal         string           `dynamodbav:"FundingGoal,omitempty"`
	PitchDeckURL        string           `dynamodbav:"PitchDeckURL,omitempty"`
	TeamMembers         []teamMemberItem `dynamodbav:"TeamMembers,omitempty"`
	UpdatedAt           string           `dynamodbav:"UpdatedAt"`
}

func newProfileItem(p *entities.Profile) profileItem {
	item := profileItem{
		PK:                  userPK(p.UserID.Int64()),
		SK:                  "PROFILE",
		EntityType:          "PROFILE",
		ProfileID:           p.ID,
		UserID:              p.UserID.Int64(),
		Bio:                 p.Bio,
		Location:            p.Location,
		Website:             p.Website,
		LinkedIn:            p.LinkedIn,
		Phone:               p.Phone,
		InvestmentInterests: p.InvestmentInterests,
		PortfolioCompanies:  p.PortfolioCompanies,
		InvestmentRange:     p.InvestmentRange,
		CompanyName:         p.CompanyName,
		CompanyDescription:  p.CompanyDescription,
		Industry:            p.Industry,
		FundingStage:        p.FundingStage,
		FundingGoal:         p.FundingGoal,
		PitchDeckURL:        p.PitchDeckURL,
		UpdatedAt:           formatTime(p.UpdatedAt),
	}
	for _, m := range p.TeamMembers {
		item.TeamMembers = append(item.TeamMembers, teamMemberItem{Name: m.Name, Role: m.Role, Image: m.Image})
	}
	return item
}

func (i profileItem) toEntity() *entities.Profile {
	p := &entities.Profile{
		ID:                  i.ProfileID,
		UserID:              valueobjects.UserID(i.UserID),
		Bio:                 i.Bio,
		Location:            i.Location,
		Website:             i.Website,
		LinkedIn:            i.LinkedIn,
		Phone:               i.Phone,
		InvestmentInterests: i.InvestmentInterests,
		PortfolioCompanies:  i.PortfolioCompanies,
		InvestmentRange:     i.InvestmentRange,
		CompanyName:         i.CompanyName,
		CompanyDescription:  i.CompanyDescription,
		Industry:            i.Industry,
		FundingStage:        i.FundingStage,
		FundingGoal:         i.FundingGoal,
		PitchDeckURL:        i.PitchDeckURL,
		UpdatedAt:           parseTime(i.UpdatedAt),
	}
	for _, m := range i.TeamMembers {
		p.TeamMembers = append(p.TeamMembers, entities.TeamMember{Name: m.Name, Role: m.Role, Image: m.Image})
	}
	return p
}

// Create stores the first profile of a user
func (r *ProfileRepository) Create(ctx context.Context, profile *entities.Profile) (created *entities.Profile, err error) {
	start := time.Now()
	defer func() { r.metrics.RecordStoreOperation("profile.create", err, time.Since(start)) }()

	if profile == nil || profile.UserID.IsZero() {
		return nil, pkgerrors.NewValidationError("profile must belong to a user")
	}

	id, err := r.ids.next(ctx)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("profile.create", err)
	}

	stored := profile.Clone()
	stored.ID = id
	stored.UpdatedAt = r.now().UTC()

	if err := r.put(ctx, stored, "attribute_not_exists(PK)"); err != nil {
		if isConditionalCheckFailed(err) {
			return nil, pkgerrors.NewConflictError("profile already exists")
		}
		return nil, pkgerrors.NewDatabaseError("profile.create", err)
	}
	return stored, nil
}

// GetByUserID retrieves the profile of a user
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID valueobjects.UserID) (profile *entities.Profile, err error) {
	start := time.Now()
	defer func() {
		if pkgerrors.IsNotFound(err) {
			r.metrics.RecordStoreOperation("profile.get", nil, time.Since(start))
			return
		}
		r.metrics.RecordStoreOperation("profile.get", err, time.Since(start))
	}()

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       stringKey(userPK(userID.Int64()), "PROFILE"),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("profile.get", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("profile")
	}

	var item profileItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return item.toEntity(), nil
}

// Update replaces an existing profile, keeping its id
func (r *ProfileRepository) Update(ctx context.Context, profile *entities.Profile) (*entities.Profile, error) {
	if profile == nil {
		return nil, pkgerrors.NewValidationError("profile is required")
	}

	existing, err := r.GetByUserID(ctx, profile.UserID)
	if err != nil {
		return nil, err
	}

	stored := profile.Clone()
	stored.ID = existing.ID
	stored.UpdatedAt = r.now().UTC()

	if err := r.put(ctx, stored, "attribute_exists(PK)"); err != nil {
		if isConditionalCheckFailed(err) {
			return nil, pkgerrors.NewNotFoundError("profile")
		}
		return nil, pkgerrors.NewDatabaseError("profile.update", err)
	}
	return stored, nil
}

func (r *ProfileRepository) put(ctx context.Context, profile *entities.Profile, condition string) error {
	av, err := attributevalue.MarshalMap(newProfileItem(profile))
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String(condition),
	})
	return err
}
