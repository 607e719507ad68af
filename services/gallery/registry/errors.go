// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package registry

import "errors"

var (
	// ErrDuplicateGroup is returned by Add when a group id is already registered.
	ErrDuplicateGroup = errors.New("group already registered")

	// ErrUnknownCollection is returned by GroupsFor for any collection id
	// other than AllGroupsID.
	ErrUnknownCollection = errors.New("only 'AllGroups' is supported as a collection of groups")

	// ErrNilGroup is returned by Add for a nil group.
	ErrNilGroup = errors.New("group must not be nil")

	// ErrEmptyGroupID is returned by NewGroup when the id is empty.
	ErrEmptyGroupID = errors.New("group id must not be empty")

	// ErrNilPopulator is returned by Load without a populator.
	ErrNilPopulator = errors.New("populator must not be nil")

	// ErrGroupClosed is returned by Edit after Close.
	ErrGroupClosed = errors.New("group is closed")
)
