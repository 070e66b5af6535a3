// Package keys implements the composite external-key codec. Keys are
// deterministic strings built from ordered parts joined by fixed typed
// separators; the separators never occur inside source identifiers, which
// makes decoding lossless.
package keys

import (
	"strconv"
	"strings"

	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain"
)

// Separator values are part of the stored data format. Never change them.
const (
	KeySep      = " @ "
	TeamSep     = " /team/ "
	ClubSep     = " /club/ "
	NationSep   = " /nation/ "
	EventSep    = " /event/ "
	StageSep    = " /stage/ "
	SpSep       = " /sp/ "
	LabelSep    = " /label/ "
	PositionSep = " /rank/ "

	RankingStageTeamSep = " /st/ "
	RankingEventTeamSep = " /et/ "
	RankingStageSpSep   = " /ssp/ "
	RankingEventSpSep   = " /esp/ "
)

// StaffRole is the organisation side of a staff attachment. A staff record
// links one sports-person to exactly one of team, club or nation.
type StaffRole string

const (
	RoleTeam   StaffRole = "team"
	RoleClub   StaffRole = "club"
	RoleNation StaffRole = "nation"
)

// ParseStaffRole validates a role path segment.
func ParseStaffRole(s string) (StaffRole, error) {
	switch StaffRole(strings.ToLower(s)) {
	case RoleTeam:
		return RoleTeam, nil
	case RoleClub:
		return RoleClub, nil
	case RoleNation:
		return RoleNation, nil
	}
	return "", domain.E(domain.KindInvalidInput, "unknown staff role %q", s)
}

func (r StaffRole) separator() string {
	switch r {
	case RoleTeam:
		return TeamSep
	case RoleClub:
		return ClubSep
	case RoleNation:
		return NationSep
	}
	return ""
}

// ResourceType returns the organisation entity type for the role.
func (r StaffRole) ResourceType() domain.ResourceType {
	switch r {
	case RoleTeam:
		return domain.TypeTeam
	case RoleClub:
		return domain.TypeClub
	case RoleNation:
		return domain.TypeNation
	}
	return ""
}

// EncodeEntityKey builds the simple composite key "id @ scope" used by every
// entity type without a compound key.
func EncodeEntityKey(id, scope string) string {
	return id + KeySep + scope
}

// DecodeEntityKey splits a simple key on the leftmost key separator.
func DecodeEntityKey(key string) (id, scope string, err error) {
	id, scope, ok := strings.Cut(key, KeySep)
	if !ok || id == "" || scope == "" {
		return "", "", domain.E(domain.KindMalformedKey, "not an entity key: %q", key)
	}
	return id, scope, nil
}

// EncodeStaffKey builds "spId @ spScope /role/ orgId @ orgScope".
func EncodeStaffKey(spID, spScope string, role StaffRole, orgID, orgScope string) (string, error) {
	sep := role.separator()
	if sep == "" {
		return "", domain.E(domain.KindInvalidInput, "unknown staff role %q", string(role))
	}
	return EncodeEntityKey(spID, spScope) + sep + EncodeEntityKey(orgID, orgScope), nil
}

// DecodeStaffKey recovers the sports-person pair, the role and the
// organisation pair from a staff key. Exactly one role separator must be
// present.
func DecodeStaffKey(key string) (spID, spScope string, role StaffRole, orgID, orgScope string, err error) {
	for _, r := range []StaffRole{RoleTeam, RoleClub, RoleNation} {
		left, right, ok := strings.Cut(key, r.separator())
		if !ok {
			continue
		}
		spID, spScope, err = DecodeEntityKey(left)
		if err != nil {
			return "", "", "", "", "", err
		}
		orgID, orgScope, err = DecodeEntityKey(right)
		if err != nil {
			return "", "", "", "", "", err
		}
		return spID, spScope, r, orgID, orgScope, nil
	}
	return "", "", "", "", "", domain.E(domain.KindMalformedKey, "no role separator in staff key %q", key)
}

// EncodeKeyMomentKey builds the five-part key-moment key. Absent source
// fields encode as the empty string.
func EncodeKeyMomentKey(dateTime, eventScope, eventID, momentType, subType string) string {
	return strings.Join([]string{dateTime, eventScope, eventID, momentType, subType}, KeySep)
}

// DecodeKeyMomentKey splits a key-moment key into its ordered fields.
func DecodeKeyMomentKey(key string) (dateTime, eventScope, eventID, momentType, subType string, err error) {
	parts := strings.Split(key, KeySep)
	if len(parts) != 5 {
		return "", "", "", "", "", domain.E(domain.KindMalformedKey, "key-moment key %q has %d parts, want 5", key, len(parts))
	}
	return parts[0], parts[1], parts[2], parts[3], parts[4], nil
}

// RankingContext identifies which pairs a ranking names. The stage pair
// takes priority over the event pair, and the team pair over the
// sports-person pair, mirroring the ranking-role separators.
type RankingContext struct {
	StageID    string
	StageScope string
	EventID    string
	EventScope string

	TeamID            string
	TeamScope         string
	SportsPersonID    string
	SportsPersonScope string

	DateTime string
	Position int
}

func (rc RankingContext) contextPair() (id, scope string, stage bool, ok bool) {
	if rc.StageID != "" && rc.StageScope != "" {
		return rc.StageID, rc.StageScope, true, true
	}
	if rc.EventID != "" && rc.EventScope != "" {
		return rc.EventID, rc.EventScope, false, true
	}
	return "", "", false, false
}

// EncodeRankingKey builds a ranking key, picking the separator from the
// populated pairs:
//
//	stageId @ scope /st/  teamId @ scope /label/ dateTime /rank/ position
//
// Rankings missing a stage-or-event pair or a team-or-sports-person pair
// cannot be keyed and report InvalidInput.
func EncodeRankingKey(rc RankingContext) (string, error) {
	ctxID, ctxScope, isStage, ok := rc.contextPair()
	if !ok {
		return "", domain.E(domain.KindInvalidInput, "ranking names neither stage nor event")
	}

	var partID, partScope string
	var sep string
	switch {
	case rc.TeamID != "" && rc.TeamScope != "":
		partID, partScope = rc.TeamID, rc.TeamScope
		if isStage {
			sep = RankingStageTeamSep
		} else {
			sep = RankingEventTeamSep
		}
	case rc.SportsPersonID != "" && rc.SportsPersonScope != "":
		partID, partScope = rc.SportsPersonID, rc.SportsPersonScope
		if isStage {
			sep = RankingStageSpSep
		} else {
			sep = RankingEventSpSep
		}
	default:
		return "", domain.E(domain.KindInvalidInput, "ranking names neither team nor sports-person")
	}

	return EncodeEntityKey(ctxID, ctxScope) + sep + EncodeEntityKey(partID, partScope) +
		LabelSep + rc.DateTime + PositionSep + strconv.Itoa(rc.Position), nil
}

// DecodeRankingKey reverses EncodeRankingKey.
func DecodeRankingKey(key string) (RankingContext, error) {
	var rc RankingContext

	head, tail, ok := strings.Cut(key, LabelSep)
	if !ok {
		return rc, domain.E(domain.KindMalformedKey, "no label separator in ranking key %q", key)
	}
	dateTime, posStr, ok := strings.Cut(tail, PositionSep)
	if !ok {
		return rc, domain.E(domain.KindMalformedKey, "no position separator in ranking key %q", key)
	}
	pos, err := strconv.Atoi(posStr)
	if err != nil {
		return rc, domain.Wrap(domain.KindMalformedKey, err, "ranking position %q", posStr)
	}
	rc.DateTime = dateTime
	rc.Position = pos

	type roleSep struct {
		sep   string
		stage bool
		team  bool
	}
	for _, rs := range []roleSep{
		{RankingStageTeamSep, true, true},
		{RankingEventTeamSep, false, true},
		{RankingStageSpSep, true, false},
		{RankingEventSpSep, false, false},
	} {
		left, right, found := strings.Cut(head, rs.sep)
		if !found {
			continue
		}
		ctxID, ctxScope, err := DecodeEntityKey(left)
		if err != nil {
			return rc, err
		}
		partID, partScope, err := DecodeEntityKey(right)
		if err != nil {
			return rc, err
		}
		if rs.stage {
			rc.StageID, rc.StageScope = ctxID, ctxScope
		} else {
			rc.EventID, rc.EventScope = ctxID, ctxScope
		}
		if rs.team {
			rc.TeamID, rc.TeamScope = partID, partScope
		} else {
			rc.SportsPersonID, rc.SportsPersonScope = partID, partScope
		}
		return rc, nil
	}
	return rc, domain.E(domain.KindMalformedKey, "no ranking-role separator in %q", key)
}

// DecodeForType decodes a composite key against the type→field table and
// returns the materialised-document fields the key populates. This backs
// the reconciler's post-upsert gamedayId repair.
func DecodeForType(t domain.ResourceType, key string) (map[string]string, error) {
	switch t {
	case domain.TypeKeyMoment:
		dateTime, eventScope, eventID, momentType, subType, err := DecodeKeyMomentKey(key)
		if err != nil {
			return nil, err
		}
		return map[string]string{
			"dateTime":              dateTime,
			"_externalEventIdScope": eventScope,
			"_externalEventId":      eventID,
			"type":                  momentType,
			"subType":               subType,
		}, nil
	case domain.TypeStaff:
		spID, spScope, role, orgID, orgScope, err := DecodeStaffKey(key)
		if err != nil {
			return nil, err
		}
		fields := map[string]string{
			"_externalSportsPersonId":      spID,
			"_externalSportsPersonIdScope": spScope,
		}
		prefix := map[StaffRole]string{
			RoleTeam:   "_externalTeam",
			RoleClub:   "_externalClub",
			RoleNation: "_externalNation",
		}[role]
		fields[prefix+"Id"] = orgID
		fields[prefix+"IdScope"] = orgScope
		return fields, nil
	case domain.TypeRanking:
		rc, err := DecodeRankingKey(key)
		if err != nil {
			return nil, err
		}
		fields := map[string]string{"dateTime": rc.DateTime, "rankingPosition": strconv.Itoa(rc.Position)}
		if rc.StageID != "" {
			fields["_externalStageId"], fields["_externalStageIdScope"] = rc.StageID, rc.StageScope
		} else {
			fields["_externalEventId"], fields["_externalEventIdScope"] = rc.EventID, rc.EventScope
		}
		if rc.TeamID != "" {
			fields["_externalTeamId"], fields["_externalTeamIdScope"] = rc.TeamID, rc.TeamScope
		} else {
			fields["_externalSportsPersonId"], fields["_externalSportsPersonIdScope"] = rc.SportsPersonID, rc.SportsPersonScope
		}
		return fields, nil
	default:
		id, scope, err := DecodeEntityKey(key)
		if err != nil {
			return nil, err
		}
		return map[string]string{
			domain.FieldExternalID:      id,
			domain.FieldExternalIDScope: scope,
		}, nil
	}
}
