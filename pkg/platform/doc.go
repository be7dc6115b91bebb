// SPDX-License-Identifier: MPL-2.0

// Package platform names the operating systems whose path handling differs.
package platform
