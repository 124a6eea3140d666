package enums

// DeveloperAction names an entry in the admin audit trail.
type DeveloperAction string

const (
	DeveloperActionSendTrial          DeveloperAction = "send_trial"
	DeveloperActionClearGlobal        DeveloperAction = "clear_global"
	DeveloperActionAnnounce           DeveloperAction = "announce"
	DeveloperActionDeleteAnnouncement DeveloperAction = "delete_announcement"
	DeveloperActionTransferPremium    DeveloperAction = "transfer_premium"
)

var validDeveloperActions = []DeveloperAction{
	DeveloperActionSendTrial,
	DeveloperActionClearGlobal,
	DeveloperActionAnnounce,
	DeveloperActionDeleteAnnouncement,
	DeveloperActionTransferPremium,
}

func (a DeveloperAction) IsValid() bool {
	for _, candidate := range validDeveloperActions {
		if candidate == a {
			return true
		}
	}
	return false
}
