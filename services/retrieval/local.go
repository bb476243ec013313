// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package retrieval

import (
	"fmt"
	"os"
)

// retrieveLocal validates that the input names an existing regular file.
// No copy is made; the file is read in place.
func retrieveLocal(path string) (bool, string, string) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, fmt.Sprintf("I couldn't find a file at %q. Please check the path and try again.", path), ""
		}
		return false, fmt.Sprintf("Couldn't access %q: %v", path, err), ""
	}
	if info.IsDir() {
		return false, fmt.Sprintf("%q is a directory. Please point me at a data file (.csv, .xlsx, .xls, or .json).", path), ""
	}

	return true, fmt.Sprintf("Found your file at %s.", path), path
}
