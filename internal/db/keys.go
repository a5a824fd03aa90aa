package db

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func ShopPK(shop string) string {
	return fmt.Sprintf("SHOP#%s", shop)
}

func StatePK(state string) string {
	return fmt.Sprintf("STATE#%s", state)
}

func WebhookPK(webhookID string) string {
	return fmt.Sprintf("WH#%s", webhookID)
}

func GuardPK(key string) string {
	return fmt.Sprintf("LOCK#%s", key)
}

func AttrS(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

// IsConditionFailed reports whether err is DynamoDB rejecting a conditional write.
func IsConditionFailed(err error) bool {
	var cfe *types.ConditionalCheckFailedException
	return errors.As(err, &cfe)
}
