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

package db

import (
	"sync"

	"github.com/wajed-network/bridge/pkg/checks"
)

// DB stores the latest check snapshot per status channel
type DB interface {
	Save(channelID string, snap checks.Snapshot)
	Get(channelID string) (snap checks.Snapshot, ok bool)
}

var _ DB = (*InMemory)(nil)

type InMemory struct {
	// only the latest snapshot is kept, older ones are overwritten
	data sync.Map
}

func NewInMemory() *InMemory {
	return &InMemory{
		data: sync.Map{},
	}
}

func (i *InMemory) Save(channelID string, snap checks.Snapshot) {
	i.data.Store(channelID, &snap)
}

func (i *InMemory) Get(channelID string) (checks.Snapshot, bool) {
	tmp, ok := i.data.Load(channelID)
	if !ok {
		return checks.Snapshot{}, false
	}
	// this should not fail, otherwise this will panic
	snap := tmp.(*checks.Snapshot)

	return *snap, true
}
