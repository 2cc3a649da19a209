package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/livefire2015/ez-credit/src/models"
	"github.com/shopspring/decimal"
)

const (
	DefaultApprovalsTable = "credit_approvals"
	customerIDIndex       = "customer_id-index"
)

// API is the part of the DynamoDB client the approval store uses
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// approvalItem is the stored shape. Amounts are decimal strings and times
// RFC3339 in UTC.
type approvalItem struct {
	ID              string `dynamodbav:"id"`
	CustomerID      string `dynamodbav:"customer_id"`
	OrderID         string `dynamodbav:"order_id,omitempty"`
	RequestedAmount string `dynamodbav:"requested_amount"`
	CurrentDebt     string `dynamodbav:"current_debt"`
	CreditLimit     string `dynamodbav:"credit_limit"`
	Reason          string `dynamodbav:"reason"`
	Status          string `dynamodbav:"status"`
	ApprovedBy      string `dynamodbav:"approved_by,omitempty"`
	ApprovedAt      string `dynamodbav:"approved_at,omitempty"`
	RejectedReason  string `dynamodbav:"rejected_reason,omitempty"`
	ExpiresAt       string `dynamodbav:"expires_at"`
	CreatedAt       string `dynamodbav:"created_at"`
	UpdatedAt       string `dynamodbav:"updated_at"`
}

// ApprovalStore persists credit approvals in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: customer_id-index (PK: customer_id, SK: created_at)
type ApprovalStore struct {
	ddb       API
	tableName string
}

// NewApprovalStore creates a store on the given table
func NewApprovalStore(ddb API, tableName string) *ApprovalStore {
	if tableName == "" {
		tableName = DefaultApprovalsTable
	}
	return &ApprovalStore{ddb: ddb, tableName: tableName}
}

// CreateTable creates the approvals table and its customer index. An
// existing table is left untouched.
func (s *ApprovalStore) CreateTable(ctx context.Context) error {
	_, err := s.ddb.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(s.tableName),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("customer_id"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("created_at"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{{
			IndexName: aws.String(customerIDIndex),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String("customer_id"), KeyType: types.KeyTypeHash},
				{AttributeName: aws.String("created_at"), KeyType: types.KeyTypeRange},
			},
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		}},
	})

	var inUse *types.ResourceInUseException
	if errors.As(err, &inUse) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.tableName, err)
	}
	return nil
}

// CreateApproval stores a new approval; an existing ID is rejected
func (s *ApprovalStore) CreateApproval(ctx context.Context, a *models.CreditApproval) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	av, err := attributevalue.MarshalMap(toApprovalItem(a))
	if err != nil {
		return fmt.Errorf("failed to encode credit approval: %w", err)
	}

	_, err = s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create credit approval: %w", err)
	}
	return nil
}

// GetApproval returns one approval with a consistent read
func (s *ApprovalStore) GetApproval(ctx context.Context, id uuid.UUID) (*models.CreditApproval, error) {
	out, err := s.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id.String()},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get credit approval: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, models.ErrRecordNotFound
	}
	return decodeApproval(out.Item)
}

// UpdateApprovalDecision writes the decision on the condition that the
// stored item is still pending
func (s *ApprovalStore) UpdateApprovalDecision(ctx context.Context, a *models.CreditApproval) error {
	values := map[string]types.AttributeValue{
		":status":     &types.AttributeValueMemberS{Value: string(a.Status)},
		":updated_at": &types.AttributeValueMemberS{Value: formatTime(a.UpdatedAt)},
		":pending":    &types.AttributeValueMemberS{Value: string(models.ApprovalStatusPending)},
	}
	sets := []string{"#status = :status", "updated_at = :updated_at"}
	var removes []string

	optional := []struct {
		attr  string
		value *string
	}{
		{"approved_by", a.ApprovedBy},
		{"approved_at", formatTimePtr(a.ApprovedAt)},
		{"rejected_reason", a.RejectedReason},
	}
	for _, o := range optional {
		if o.value == nil {
			removes = append(removes, o.attr)
			continue
		}
		sets = append(sets, o.attr+" = :"+o.attr)
		values[":"+o.attr] = &types.AttributeValueMemberS{Value: *o.value}
	}

	update := "SET " + strings.Join(sets, ", ")
	if len(removes) > 0 {
		update += " REMOVE " + strings.Join(removes, ", ")
	}

	_, err := s.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: a.ID.String()},
		},
		UpdateExpression:    aws.String(update),
		ConditionExpression: aws.String("attribute_exists(#id) AND #status = :pending"),
		ExpressionAttributeNames: map[string]string{
			"#id":     "id",
			"#status": "status",
		},
		ExpressionAttributeValues: values,
	})

	var failed *types.ConditionalCheckFailedException
	if errors.As(err, &failed) {
		if _, getErr := s.GetApproval(ctx, a.ID); getErr != nil {
			return getErr
		}
		return models.ErrVersionConflict
	}
	if err != nil {
		return fmt.Errorf("failed to update credit approval: %w", err)
	}
	return nil
}

// FindActiveApproval returns the approved grant in force at now that
// expires last
func (s *ApprovalStore) FindActiveApproval(ctx context.Context, customerID uuid.UUID, now time.Time) (*models.CreditApproval, error) {
	approved := models.ApprovalStatusApproved
	approvals, err := s.ListApprovals(ctx, models.ApprovalFilter{CustomerID: &customerID, Status: &approved})
	if err != nil {
		return nil, err
	}

	var best *models.CreditApproval
	for i := range approvals {
		a := &approvals[i]
		if !a.IsActiveGrant(now) {
			continue
		}
		if best == nil || a.ExpiresAt.After(best.ExpiresAt) {
			best = a
		}
	}
	if best == nil {
		return nil, models.ErrRecordNotFound
	}
	return best, nil
}

// ListApprovals returns matching approvals newest first. A customer filter
// queries the customer index; otherwise the table is scanned.
func (s *ApprovalStore) ListApprovals(ctx context.Context, filter models.ApprovalFilter) ([]models.CreditApproval, error) {
	var (
		pages [][]map[string]types.AttributeValue
		err   error
	)
	if filter.CustomerID != nil {
		pages, err = s.queryByCustomer(ctx, *filter.CustomerID, filter.Status)
	} else {
		pages, err = s.scan(ctx, filter.Status)
	}
	if err != nil {
		return nil, err
	}

	var approvals []models.CreditApproval
	for _, items := range pages {
		for _, item := range items {
			a, err := decodeApproval(item)
			if err != nil {
				return nil, err
			}
			if filter.Matches(a) {
				approvals = append(approvals, *a)
			}
		}
	}

	sort.Slice(approvals, func(i, j int) bool {
		return approvals[i].CreatedAt.After(approvals[j].CreatedAt)
	})
	return approvals, nil
}

func (s *ApprovalStore) queryByCustomer(ctx context.Context, customerID uuid.UUID, status *models.ApprovalStatus) ([][]map[string]types.AttributeValue, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(customerIDIndex),
		KeyConditionExpression: aws.String("customer_id = :cid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cid": &types.AttributeValueMemberS{Value: customerID.String()},
		},
	}
	if status != nil {
		input.FilterExpression = aws.String("#status = :status")
		input.ExpressionAttributeNames = map[string]string{"#status": "status"}
		input.ExpressionAttributeValues[":status"] = &types.AttributeValueMemberS{Value: string(*status)}
	}

	var pages [][]map[string]types.AttributeValue
	paginator := dynamodb.NewQueryPaginator(s.ddb, input)
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query credit approvals: %w", err)
		}
		pages = append(pages, out.Items)
	}
	return pages, nil
}

func (s *ApprovalStore) scan(ctx context.Context, status *models.ApprovalStatus) ([][]map[string]types.AttributeValue, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(s.tableName)}
	if status != nil {
		input.FilterExpression = aws.String("#status = :status")
		input.ExpressionAttributeNames = map[string]string{"#status": "status"}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(*status)},
		}
	}

	var pages [][]map[string]types.AttributeValue
	paginator := dynamodb.NewScanPaginator(s.ddb, input)
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credit approvals: %w", err)
		}
		pages = append(pages, out.Items)
	}
	return pages, nil
}

func decodeApproval(item map[string]types.AttributeValue) (*models.CreditApproval, error) {
	var it approvalItem
	if err := attributevalue.UnmarshalMap(item, &it); err != nil {
		return nil, fmt.Errorf("failed to decode credit approval: %w", err)
	}
	a, err := fromApprovalItem(it)
	if err != nil {
		return nil, fmt.Errorf("failed to decode credit approval %s: %w", it.ID, err)
	}
	return a, nil
}

func toApprovalItem(a *models.CreditApproval) approvalItem {
	it := approvalItem{
		ID:              a.ID.String(),
		CustomerID:      a.CustomerID.String(),
		RequestedAmount: a.RequestedAmount.String(),
		CurrentDebt:     a.CurrentDebt.String(),
		CreditLimit:     a.CreditLimit.String(),
		Reason:          a.Reason,
		Status:          string(a.Status),
		ExpiresAt:       formatTime(a.ExpiresAt),
		CreatedAt:       formatTime(a.CreatedAt),
		UpdatedAt:       formatTime(a.UpdatedAt),
	}
	if a.OrderID != nil {
		it.OrderID = a.OrderID.String()
	}
	if a.ApprovedBy != nil {
		it.ApprovedBy = *a.ApprovedBy
	}
	if a.ApprovedAt != nil {
		it.ApprovedAt = formatTime(*a.ApprovedAt)
	}
	if a.RejectedReason != nil {
		it.RejectedReason = *a.RejectedReason
	}
	return it
}

func fromApprovalItem(it approvalItem) (*models.CreditApproval, error) {
	a := &models.CreditApproval{
		Reason: it.Reason,
		Status: models.ApprovalStatus(it.Status),
	}

	var err error
	if a.ID, err = uuid.Parse(it.ID); err != nil {
		return nil, err
	}
	if a.CustomerID, err = uuid.Parse(it.CustomerID); err != nil {
		return nil, err
	}
	if it.OrderID != "" {
		orderID, err := uuid.Parse(it.OrderID)
		if err != nil {
			return nil, err
		}
		a.OrderID = &orderID
	}

	if a.RequestedAmount, err = decimal.NewFromString(it.RequestedAmount); err != nil {
		return nil, err
	}
	if a.CurrentDebt, err = decimal.NewFromString(it.CurrentDebt); err != nil {
		return nil, err
	}
	if a.CreditLimit, err = decimal.NewFromString(it.CreditLimit); err != nil {
		return nil, err
	}

	if a.ExpiresAt, err = time.Parse(time.RFC3339Nano, it.ExpiresAt); err != nil {
		return nil, err
	}
	if a.CreatedAt, err = time.Parse(time.RFC3339Nano, it.CreatedAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = time.Parse(time.RFC3339Nano, it.UpdatedAt); err != nil {
		return nil, err
	}

	if it.ApprovedBy != "" {
		by := it.ApprovedBy
		a.ApprovedBy = &by
	}
	if it.ApprovedAt != "" {
		at, err := time.Parse(time.RFC3339Nano, it.ApprovedAt)
		if err != nil {
			return nil, err
		}
		a.ApprovedAt = &at
	}
	if it.RejectedReason != "" {
		reason := it.RejectedReason
		a.RejectedReason = &reason
	}
	return a, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}
