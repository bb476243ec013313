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

// s3UnavailableMessage is the fixed response for S3 requests. The source
// kind is recognized so the user gets a clear answer instead of a
// classification re-prompt.
const s3UnavailableMessage = "S3 support is coming soon. For now I can read files from Google Drive or your local disk."

// retrieveS3 always fails with the fixed message.
func retrieveS3() (bool, string, string) {
	return false, s3UnavailableMessage, ""
}
