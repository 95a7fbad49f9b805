// Package relay is the connection registry and broadcast fan-out engine of
// the walkie-talkie server.
//
// Transports hand the Supervisor an already established Connection and report
// its messages, closure and errors. The Registry tracks every attached
// connection and the Participant a connection becomes once it joins. The
// Router decodes inbound events and rebroadcasts them to every other
// connection.
package relay
