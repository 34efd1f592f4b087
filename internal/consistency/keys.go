// Package consistency gives reads a read-your-writes guarantee.
//
// Every cacheable read depends on a set of resource keys. Each key has a
// monotonic version counter. A mutation bumps the versions of the keys it
// affects after its unit of work commits and before its response is written,
// so any later read by the same caller sees a new version stamp and reloads.
package consistency

import (
	id "famhelpdesk/pkg/domain"
)

// Key names a cacheable resource.
type Key string

func Families() Key { return "families" }

func Family(f id.FamilyID) Key { return Key("family:" + f.String()) }

func FamilyMembers(f id.FamilyID) Key { return Key("family:" + f.String() + ":members") }

func FamilyRequests(f id.FamilyID) Key { return Key("family:" + f.String() + ":requests") }

func FamilyGroups(f id.FamilyID) Key { return Key("family:" + f.String() + ":groups") }

func UserFamilies(u id.UserID) Key { return Key("user:" + u.String() + ":families") }

func Group(g id.GroupID) Key { return Key("group:" + g.String()) }

func GroupMembers(g id.GroupID) Key { return Key("group:" + g.String() + ":members") }

func GroupRequests(g id.GroupID) Key { return Key("group:" + g.String() + ":requests") }

func UserGroups(u id.UserID) Key { return Key("user:" + u.String() + ":groups") }

func UserProfile(u id.UserID) Key { return Key("user:" + u.String() + ":profile") }

func UserNotifications(u id.UserID) Key { return Key("user:" + u.String() + ":notifications") }

func UserUnread(u id.UserID) Key { return Key("user:" + u.String() + ":unread") }
