package mirror

import (
	"fmt"

	"github.com/zulandar/waybridge/internal/models"
)

// The interaction-type/message-role mapping is total and invertible: every
// interaction type maps to exactly one role and back. Both processors apply
// the same table.
var roleForType = map[string]string{
	models.InteractionPrompt:   models.RoleUser,
	models.InteractionResponse: models.RoleAssistant,
}

var typeForRole = map[string]string{
	models.RoleUser:      models.InteractionPrompt,
	models.RoleAssistant: models.InteractionResponse,
}

// RoleForInteractionType maps a session interaction type to its bridge
// message role.
func RoleForInteractionType(interactionType string) (string, error) {
	role, ok := roleForType[interactionType]
	if !ok {
		return "", fmt.Errorf("mirror: unknown interaction type %q", interactionType)
	}
	return role, nil
}

// InteractionTypeForRole maps a bridge message role to its session
// interaction type.
func InteractionTypeForRole(role string) (string, error) {
	it, ok := typeForRole[role]
	if !ok {
		return "", fmt.Errorf("mirror: unknown message role %q", role)
	}
	return it, nil
}
