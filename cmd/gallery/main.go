// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command gallery browses featured photo groups and their top items.
package main

import (
	"context"
	"os"

	"github.com/AleutianAI/gallery/pkg/logging"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		// The configured logger may not exist if setup failed.
		logging.Default().Error("command failed", "error", err)
		os.Exit(1)
	}
}
