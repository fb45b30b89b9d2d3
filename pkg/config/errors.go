// bridge
// (C) 2024, Deutsche Telekom IT GmbH
//
// Deutsche Telekom IT GmbH and all other contributors /
// copyright owners license this file to you under the Apache
// License, Version 2.0 (the "License"); you may not use this
// file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package config

import "errors"

var (
	// ErrMissingToken is returned when no bot token is configured
	ErrMissingToken = errors.New("missing discord bot token")
	// ErrMissingGuild is returned when one of the guild identifiers is empty
	ErrMissingGuild = errors.New("missing guild id")
	// ErrMissingChannel is returned when the status channel is not configured
	ErrMissingChannel = errors.New("missing status channel id")
	// ErrInvalidInterval is returned when the status interval is too short
	ErrInvalidInterval = errors.New("invalid status interval")
	// ErrInvalidTimeout is returned when the checker timeout is too short
	ErrInvalidTimeout = errors.New("invalid check timeout")
	// ErrInvalidURL is returned when one of the configured urls cannot be parsed
	ErrInvalidURL = errors.New("invalid url")
	// ErrInvalidRetryCount is returned when the gateway retry count is out of range
	ErrInvalidRetryCount = errors.New("invalid gateway retry count")
	// ErrInvalidTimezone is returned when the status time zone is unknown
	ErrInvalidTimezone = errors.New("invalid status timezone")
)
