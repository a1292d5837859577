// Automatically generated from the message definition "visualization_msgs/Marker.msg"
package visualization_msgs

import (
	"bytes"
	"encoding/binary"

	"github.com/akio/rosgo/ros"

	"github.com/deepakkamesh/scanmarker/msgs/geometry_msgs"
	"github.com/deepakkamesh/scanmarker/msgs/std_msgs"
)

const (
	MarkerARROW            uint8 = 0
	MarkerCUBE             uint8 = 1
	MarkerSPHERE           uint8 = 2
	MarkerCYLINDER         uint8 = 3
	MarkerLINE_STRIP       uint8 = 4
	MarkerLINE_LIST        uint8 = 5
	MarkerCUBE_LIST        uint8 = 6
	MarkerSPHERE_LIST      uint8 = 7
	MarkerPOINTS           uint8 = 8
	MarkerTEXT_VIEW_FACING uint8 = 9
	MarkerMESH_RESOURCE    uint8 = 10
	MarkerTRIANGLE_LIST    uint8 = 11
	MarkerADD              uint8 = 0
	MarkerMODIFY           uint8 = 0
	MarkerDELETE           uint8 = 2
	MarkerDELETEALL        uint8 = 3
)

type _MsgMarker struct {
	text   string
	name   string
	md5sum string
}

func (t *_MsgMarker) Text() string {
	return t.text
}

func (t *_MsgMarker) Name() string {
	return t.name
}

func (t *_MsgMarker) MD5Sum() string {
	return t.md5sum
}

func (t *_MsgMarker) NewMessage() ros.Message {
	m := new(Marker)
	m.Header = std_msgs.Header{}
	m.Ns = ""
	m.Id = 0
	m.Type_ = 0
	m.Action = 0
	m.Pose = geometry_msgs.Pose{}
	m.Scale = geometry_msgs.Vector3{}
	m.Color = std_msgs.ColorRGBA{}
	m.Lifetime = ros.Duration{}
	m.FrameLocked = false
	m.Points = []geometry_msgs.Point{}
	m.Colors = []std_msgs.ColorRGBA{}
	m.Text = ""
	m.MeshResource = ""
	m.MeshUseEmbeddedMaterials = false
	return m
}

var (
	MsgMarker = &_MsgMarker{
		`# See http://www.ros.org/wiki/rviz/DisplayTypes/Marker and http://www.ros.org/wiki/rviz/Tutorials/Markers%3A%20Basic%20Shapes for more information on using this message with rviz

uint8 ARROW=0
uint8 CUBE=1
uint8 SPHERE=2
uint8 CYLINDER=3
uint8 LINE_STRIP=4
uint8 LINE_LIST=5
uint8 CUBE_LIST=6
uint8 SPHERE_LIST=7
uint8 POINTS=8
uint8 TEXT_VIEW_FACING=9
uint8 MESH_RESOURCE=10
uint8 TRIANGLE_LIST=11

uint8 ADD=0
uint8 MODIFY=0
uint8 DELETE=2
uint8 DELETEALL=3

Header header                        # header for time/frame information
string ns                            # Namespace to place this object in... used in conjunction with id to create a unique name for the object
int32 id 		                         # object ID useful in conjunction with the namespace for manipulating and deleting the object later
int32 type 		                       # Type of object
int32 action 	                       # 0 add/modify an object, 1 (deprecated), 2 deletes an object, 3 deletes all objects
geometry_msgs/Pose pose                 # Pose of the object
geometry_msgs/Vector3 scale             # Scale of the object 1,1,1 means default (usually 1 meter square)
std_msgs/ColorRGBA color             # Color [0.0-1.0]
duration lifetime                    # How long the object should last before being automatically deleted.  0 means forever
bool frame_locked                    # If this marker should be frame-locked, i.e. retransformed into its frame every timestep

#Only used if the type specified has some use for them (eg. POINTS, LINE_STRIP, ...)
geometry_msgs/Point[] points
#Only used if the type specified has some use for them (eg. POINTS, LINE_STRIP, ...)
#number of colors must either be 0 or equal to the number of points
#NOTE: alpha is not yet used
std_msgs/ColorRGBA[] colors

# NOTE: only used for text markers
string text

# NOTE: only used for MESH_RESOURCE markers
string mesh_resource
bool mesh_use_embedded_materials
`,
		"visualization_msgs/Marker",
		"4048c9de2a16f4ae8e0538085ebf1b97",
	}
)

type Marker struct {
	Header                   std_msgs.Header       `rosmsg:"header:Header"`
	Ns                       string                `rosmsg:"ns:string"`
	Id                       int32                 `rosmsg:"id:int32"`
	Type_                    int32                 `rosmsg:"type:int32"`
	Action                   int32                 `rosmsg:"action:int32"`
	Pose                     geometry_msgs.Pose    `rosmsg:"pose:Pose"`
	Scale                    geometry_msgs.Vector3 `rosmsg:"scale:Vector3"`
	Color                    std_msgs.ColorRGBA    `rosmsg:"color:ColorRGBA"`
	Lifetime                 ros.Duration          `rosmsg:"lifetime:duration"`
	FrameLocked              bool                  `rosmsg:"frame_locked:bool"`
	Points                   []geometry_msgs.Point `rosmsg:"points:Point[]"`
	Colors                   []std_msgs.ColorRGBA  `rosmsg:"colors:ColorRGBA[]"`
	Text                     string                `rosmsg:"text:string"`
	MeshResource             string                `rosmsg:"mesh_resource:string"`
	MeshUseEmbeddedMaterials bool                  `rosmsg:"mesh_use_embedded_materials:bool"`
}

func (m *Marker) Type() ros.MessageType {
	return MsgMarker
}

func (m *Marker) Serialize(buf *bytes.Buffer) error {
	var err error = nil
	if err = m.Header.Serialize(buf); err != nil {
		return err
	}
	binary.Write(buf, binary.LittleEndian, uint32(len(m.Ns)))
	buf.Write([]byte(m.Ns))
	binary.Write(buf, binary.LittleEndian, m.Id)
	binary.Write(buf, binary.LittleEndian, m.Type_)
	binary.Write(buf, binary.LittleEndian, m.Action)
	if err = m.Pose.Serialize(buf); err != nil {
		return err
	}
	if err = m.Scale.Serialize(buf); err != nil {
		return err
	}
	if err = m.Color.Serialize(buf); err != nil {
		return err
	}
	binary.Write(buf, binary.LittleEndian, m.Lifetime.Sec)
	binary.Write(buf, binary.LittleEndian, m.Lifetime.NSec)
	binary.Write(buf, binary.LittleEndian, m.FrameLocked)
	binary.Write(buf, binary.LittleEndian, uint32(len(m.Points)))
	for _, e := range m.Points {
		if err = e.Serialize(buf); err != nil {
			return err
		}
	}
	binary.Write(buf, binary.LittleEndian, uint32(len(m.Colors)))
	for _, e := range m.Colors {
		if err = e.Serialize(buf); err != nil {
			return err
		}
	}
	binary.Write(buf, binary.LittleEndian, uint32(len(m.Text)))
	buf.Write([]byte(m.Text))
	binary.Write(buf, binary.LittleEndian, uint32(len(m.MeshResource)))
	buf.Write([]byte(m.MeshResource))
	binary.Write(buf, binary.LittleEndian, m.MeshUseEmbeddedMaterials)
	return err
}

func (m *Marker) Deserialize(buf *bytes.Reader) error {
	var err error = nil
	if err = m.Header.Deserialize(buf); err != nil {
		return err
	}
	if m.Ns, err = readString(buf); err != nil {
		return err
	}
	if err = binary.Read(buf, binary.LittleEndian, &m.Id); err != nil {
		return err
	}
	if err = binary.Read(buf, binary.LittleEndian, &m.Type_); err != nil {
		return err
	}
	if err = binary.Read(buf, binary.LittleEndian, &m.Action); err != nil {
		return err
	}
	if err = m.Pose.Deserialize(buf); err != nil {
		return err
	}
	if err = m.Scale.Deserialize(buf); err != nil {
		return err
	}
	if err = m.Color.Deserialize(buf); err != nil {
		return err
	}
	{
		if err = binary.Read(buf, binary.LittleEndian, &m.Lifetime.Sec); err != nil {
			return err
		}

		if err = binary.Read(buf, binary.LittleEndian, &m.Lifetime.NSec); err != nil {
			return err
		}
	}
	if err = binary.Read(buf, binary.LittleEndian, &m.FrameLocked); err != nil {
		return err
	}
	{
		var size uint32
		if err = binary.Read(buf, binary.LittleEndian, &size); err != nil {
			return err
		}
		m.Points = make([]geometry_msgs.Point, int(size))
		for i := 0; i < int(size); i++ {
			if err = m.Points[i].Deserialize(buf); err != nil {
				return err
			}
		}
	}
	{
		var size uint32
		if err = binary.Read(buf, binary.LittleEndian, &size); err != nil {
			return err
		}
		m.Colors = make([]std_msgs.ColorRGBA, int(size))
		for i := 0; i < int(size); i++ {
			if err = m.Colors[i].Deserialize(buf); err != nil {
				return err
			}
		}
	}
	if m.Text, err = readString(buf); err != nil {
		return err
	}
	if m.MeshResource, err = readString(buf); err != nil {
		return err
	}
	if err = binary.Read(buf, binary.LittleEndian, &m.MeshUseEmbeddedMaterials); err != nil {
		return err
	}
	return err
}

func readString(buf *bytes.Reader) (string, error) {
	var size uint32
	if err := binary.Read(buf, binary.LittleEndian, &size); err != nil {
		return "", err
	}
	data := make([]byte, int(size))
	if err := binary.Read(buf, binary.LittleEndian, data); err != nil {
		return "", err
	}
	return string(data), nil
}
