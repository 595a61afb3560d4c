package opcua

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/awcullen/opcua/server"
	"github.com/awcullen/opcua/ua"
	"github.com/rs/zerolog/log"

	"github.com/sebastiankruger/pickplace-simulator/internal/core"
)

const defaultPKIDir = "./pki"

// NamespaceNodes holds nodes for a specific namespace
type NamespaceNodes struct {
	Namespace  uint16
	FolderName string
	FolderDesc string
	NodeDefs   []core.NodeDefinition // Stored for deferred registration
	VarNodes   map[string]*server.VariableNode
	Values     map[string]interface{}
}

// Server wraps the OPC UA server and keeps the last published values
// so they can be read back even when the server failed to start.
type Server struct {
	srv     *server.Server
	port    int
	appName string
	pkiDir  string
	mu      sync.RWMutex
	ready   bool

	namespaces map[uint16]*NamespaceNodes
}

// NewServer creates a new OPC UA server
func NewServer(port int, appName string) (*Server, error) {
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("OPC UA port must be between 1 and 65535, got %d", port)
	}
	return &Server{
		port:       port,
		appName:    appName,
		pkiDir:     defaultPKIDir,
		namespaces: make(map[uint16]*NamespaceNodes),
	}, nil
}

// SetPKIDir overrides where the server certificate and key are kept
func (s *Server) SetPKIDir(dir string) {
	s.pkiDir = dir
}

// Endpoint returns the opc.tcp endpoint URL
func (s *Server) Endpoint() string {
	return fmt.Sprintf("opc.tcp://0.0.0.0:%d", s.port)
}

// Ready reports whether Start has completed, in either serving or
// value-storage mode
func (s *Server) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Serving reports whether the OPC UA endpoint is actually listening
func (s *Server) Serving() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.srv != nil
}

// Start starts the OPC UA server. Failures to create the server degrade to
// value-storage mode instead of aborting the simulator.
func (s *Server) Start(ctx context.Context) error {
	endpoint := s.Endpoint()

	log.Info().
		Int("port", s.port).
		Str("endpoint", endpoint).
		Msg("Starting OPC UA server")

	certFile := filepath.Join(s.pkiDir, "server.crt")
	keyFile := filepath.Join(s.pkiDir, "server.key")

	if err := ensurePKI(s.appName, s.pkiDir, certFile, keyFile); err != nil {
		log.Warn().Err(err).Msg("Failed to create PKI - OPC UA server disabled")
		s.markReady()
		return nil
	}

	// Try to create the OPC UA server with panic recovery
	var srv *server.Server
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Warn().
					Interface("panic", r).
					Msg("OPC UA server creation panicked - running in value storage mode only")
			}
		}()

		var err error
		srv, err = server.New(
			ua.ApplicationDescription{
				ApplicationURI:  applicationURI,
				ProductURI:      "urn:pickplace-simulator",
				ApplicationName: ua.LocalizedText{Text: "Pick and Place Arm Simulator", Locale: "en"},
				ApplicationType: ua.ApplicationTypeServer,
			},
			certFile,
			keyFile,
			endpoint,
			server.WithAnonymousIdentity(true),
			server.WithSecurityPolicyNone(true),
			server.WithInsecureSkipVerify(),
		)
		if err != nil {
			log.Warn().
				Err(err).
				Msg("OPC UA server creation failed - running in value storage mode only")
			srv = nil
		}
	}()

	if srv == nil {
		log.Info().Msg("OPC UA server disabled - running simulator in value storage mode only")
		s.markReady()
		return nil
	}

	s.mu.Lock()
	s.srv = srv
	err := s.registerPendingNamespaces()
	s.mu.Unlock()
	if err != nil {
		log.Error().Err(err).Msg("Failed to register pending namespaces")
		return err
	}

	// Start server in background
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("OPC UA server panic")
			}
		}()
		if err := srv.ListenAndServe(); err != nil {
			log.Error().Err(err).Msg("OPC UA server error")
		}
	}()

	s.markReady()
	log.Info().Msg("OPC UA server started successfully")
	return nil
}

func (s *Server) markReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
}

// Stop stops the OPC UA server
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = false
	if s.srv != nil {
		return s.srv.Close()
	}
	return nil
}

// RegisterNamespace creates a namespace with a root folder and variable
// nodes. Before Start the definitions are stored and registered later.
func (s *Server) RegisterNamespace(nsIndex uint16, folderName, folderDesc string, nodes []core.NodeDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.namespaces[nsIndex]; exists {
		return fmt.Errorf("namespace %d already registered", nsIndex)
	}

	ns := &NamespaceNodes{
		Namespace:  nsIndex,
		FolderName: folderName,
		FolderDesc: folderDesc,
		NodeDefs:   nodes,
		VarNodes:   make(map[string]*server.VariableNode),
		Values:     make(map[string]interface{}),
	}
	for _, nodeDef := range nodes {
		ns.Values[nodeDef.Name] = nodeDef.InitialValue
	}
	s.namespaces[nsIndex] = ns

	if s.srv == nil {
		return nil
	}
	s.addNamespaceNodes(ns)
	return nil
}

// UpdateNamespaceValues updates all values for a namespace
func (s *Server) UpdateNamespaceValues(nsIndex uint16, values map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.namespaces[nsIndex]
	if !ok {
		return
	}

	now := time.Now().UTC()
	for name, value := range values {
		ns.Values[name] = value
		if varNode, ok := ns.VarNodes[name]; ok {
			varNode.SetValue(ua.NewDataValue(value, 0, now, 0, now, 0))
		}
	}
}

// GetNamespaceValue returns a value from a namespace
func (s *Server) GetNamespaceValue(nsIndex uint16, name string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ns, ok := s.namespaces[nsIndex]
	if !ok {
		return nil, false
	}

	value, ok := ns.Values[name]
	return value, ok
}

// GetNamespaceValues returns a copy of every value in a namespace
func (s *Server) GetNamespaceValues(nsIndex uint16) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ns, ok := s.namespaces[nsIndex]
	if !ok {
		return nil
	}

	values := make(map[string]interface{}, len(ns.Values))
	for name, value := range ns.Values {
		values[name] = value
	}
	return values
}

// registerPendingNamespaces adds stored namespaces once the server exists.
// Caller holds s.mu.
func (s *Server) registerPendingNamespaces() error {
	nodeCount := 0
	for _, ns := range s.namespaces {
		s.addNamespaceNodes(ns)
		nodeCount += len(ns.NodeDefs)
	}

	log.Info().Int("count", nodeCount).Msg("OPC UA nodes registered in address space")
	return nil
}

// addNamespaceNodes builds the folder and variables for ns. Caller holds s.mu.
func (s *Server) addNamespaceNodes(ns *NamespaceNodes) {
	nm := s.srv.NamespaceManager()
	nsIndex := ns.Namespace

	// Create folder node under Objects folder
	folder := server.NewObjectNode(
		s.srv,
		ua.NodeIDString{NamespaceIndex: nsIndex, ID: ns.FolderName},
		ua.QualifiedName{NamespaceIndex: nsIndex, Name: ns.FolderName},
		ua.LocalizedText{Text: ns.FolderName},
		ua.LocalizedText{Text: ns.FolderDesc},
		nil,
		[]ua.Reference{
			{
				ReferenceTypeID: ua.ReferenceTypeIDOrganizes,
				IsInverse:       true,
				TargetID:        ua.ExpandedNodeID{NodeID: ua.ObjectIDObjectsFolder},
			},
		},
		0,
	)
	nm.AddNode(folder)

	for _, nodeDef := range ns.NodeDefs {
		now := time.Now().UTC()
		varNode := server.NewVariableNode(
			s.srv,
			ua.NodeIDString{NamespaceIndex: nsIndex, ID: NodeID(ns.FolderName, nodeDef.Name)},
			ua.QualifiedName{NamespaceIndex: nsIndex, Name: nodeDef.Name},
			ua.LocalizedText{Text: nodeDef.DisplayName},
			ua.LocalizedText{Text: nodeDef.Description},
			nil,
			[]ua.Reference{
				{
					ReferenceTypeID: ua.ReferenceTypeIDHasComponent,
					IsInverse:       true,
					TargetID:        ua.ExpandedNodeID{NodeID: ua.NodeIDString{NamespaceIndex: nsIndex, ID: ns.FolderName}},
				},
			},
			ua.NewDataValue(ns.Values[nodeDef.Name], 0, now, 0, now, 0),
			DataTypeID(nodeDef.DataType),
			ua.ValueRankScalar,
			[]uint32{},
			ua.AccessLevelsCurrentRead,
			250.0,
			false,
			nil,
		)
		nm.AddNode(varNode)
		ns.VarNodes[nodeDef.Name] = varNode
	}

	log.Info().
		Uint16("namespace", nsIndex).
		Str("folder", ns.FolderName).
		Int("nodes", len(ns.NodeDefs)).
		Msg("Registered OPC UA namespace")
}

// NodeID returns the string identifier of a variable inside a folder
func NodeID(folderName, nodeName string) string {
	return folderName + "." + nodeName
}

// DataTypeID maps a node data type to its OPC UA data type node
func DataTypeID(dt core.DataType) ua.NodeID {
	switch dt {
	case core.DataTypeFloat:
		return ua.DataTypeIDFloat
	case core.DataTypeInt32:
		return ua.DataTypeIDInt32
	case core.DataTypeInt64:
		return ua.DataTypeIDInt64
	case core.DataTypeString:
		return ua.DataTypeIDString
	case core.DataTypeBool:
		return ua.DataTypeIDBoolean
	case core.DataTypeDateTime:
		return ua.DataTypeIDDateTime
	default:
		return ua.DataTypeIDDouble
	}
}
