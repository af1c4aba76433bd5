// Package ws pushes ranking updates to websocket subscribers.
//
// A client connects to /ws?room=<room> and receives every update published
// to that room. Rooms are named after what they rank:
//
//	group:<groupId>
//	round:<roundId>
//	competition:<competitionId>:<category>:<sex>
//
// Message format sent to clients:
//
//	{
//	  "event":    "rankingsUpdate",
//	  "room":     "round:20",
//	  "rankings": [ { "climberId": 1, "rank": 1 }, ... ],
//	  "diff":     [ { "climberId": 1, "delta": -1 }, ... ]
//	}
//
// A client whose send buffer is full is dropped rather than slowing down
// the publisher.
package ws
